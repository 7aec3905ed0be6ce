package services

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pantolingo/pantolingo/internal/adapter/extract"
	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// PollEndpoint and ScriptEndpoint are the control paths the client script
// talks to. They sit under a reserved prefix so they can never collide
// with an origin path.
const (
	ControlPrefix  = "/__pantolingo"
	PollEndpoint   = ControlPrefix + "/translate"
	ScriptEndpoint = ControlPrefix + "/deferred.js"
)

const skeletonCSS = `.` + extract.SkeletonClass + `{position:relative;color:transparent!important;background:linear-gradient(90deg,#eee 25%,#f5f5f5 50%,#eee 75%);background-size:200% 100%;animation:pantolingo-shimmer 1.2s infinite;border-radius:3px}
@keyframes pantolingo-shimmer{0%{background-position:200% 0}100%{background-position:-200% 0}}`

// DeferredScript is the polling client served at ScriptEndpoint. It reads
// the bootstrap global, polls the translate endpoint, patches the DOM as
// translations land, and reveals the original text once the retry budget
// is spent.
const DeferredScript = `(function(){
"use strict";
var boot=window.__PANTOLINGO_DEFERRED__;
if(!boot||!boot.segments||!boot.segments.length){return;}
var pending=boot.segments.slice();
var polls=0;
var maxPolls=boot.maxPolls||30;
var interval=boot.interval||1500;

function clearSkeleton(el){
  el.classList.remove("` + extract.SkeletonClass + `");
  el.removeAttribute("` + extract.PendingAttr + `");
}

function findAttrTarget(seg){
  if(!seg.attr){return null;}
  return document.querySelector('[` + extract.PendingAttrPrefix + `'+seg.attr+'="'+seg.hash+'"]');
}

function findComment(hash){
  var walker=document.createTreeWalker(document.body,NodeFilter.SHOW_COMMENT,null);
  var needle="` + extract.CommentPrefix + `"+hash;
  var node;
  while((node=walker.nextNode())){
    if(node.data===needle){return node;}
  }
  return null;
}

function patch(seg,text){
  if(seg.kind==="html"){
    var el=document.querySelector('[` + extract.PendingAttr + `="'+seg.hash+'"]');
    if(el){el.innerHTML=text;clearSkeleton(el);}
    return;
  }
  if(seg.kind==="text"){
    var comment=findComment(seg.hash);
    if(comment){
      var next=comment.nextSibling;
      if(next&&next.nodeType===Node.TEXT_NODE){
        var cur=next.data;
        var lead=cur.match(/^\s*/)[0];
        var trail=cur.match(/\s*$/)[0];
        next.data=lead+text+trail;
      }
      var parent=comment.parentNode;
      parent.removeChild(comment);
      if(parent.nodeType===Node.ELEMENT_NODE){clearSkeleton(parent);}
    }
    return;
  }
  if(seg.kind==="attr"){
    var target=findAttrTarget(seg);
    if(target){
      target.setAttribute(seg.attr,text);
      target.removeAttribute("` + extract.PendingAttrPrefix + `"+seg.attr);
    }
  }
}

function reveal(){
  pending.forEach(function(seg){
    var el=document.querySelector('[` + extract.PendingAttr + `="'+seg.hash+'"]');
    if(el){clearSkeleton(el);}
    if(seg.kind==="attr"){
      var target=findAttrTarget(seg);
      if(target){target.removeAttribute("` + extract.PendingAttrPrefix + `"+seg.attr);}
    }
    var comment=findComment(seg.hash);
    if(comment){
      var parent=comment.parentNode;
      parent.removeChild(comment);
      if(parent&&parent.nodeType===Node.ELEMENT_NODE){clearSkeleton(parent);}
    }
  });
  pending=[];
}

function poll(){
  if(!pending.length){return;}
  if(polls>=maxPolls){reveal();return;}
  polls++;
  var req=new XMLHttpRequest();
  req.open("POST",boot.endpoint,true);
  req.setRequestHeader("Content-Type","application/json");
  req.onload=function(){
    if(req.status!==200){setTimeout(poll,interval);return;}
    var done;
    try{done=JSON.parse(req.responseText);}catch(e){setTimeout(poll,interval);return;}
    pending=pending.filter(function(seg){
      if(Object.prototype.hasOwnProperty.call(done,seg.hash)){
        patch(seg,done[seg.hash]);
        return false;
      }
      return true;
    });
    if(pending.length){setTimeout(poll,interval);}
  };
  req.onerror=function(){setTimeout(poll,interval);};
  req.send(JSON.stringify({segments:pending}));
}

if(document.readyState==="loading"){
  document.addEventListener("DOMContentLoaded",function(){setTimeout(poll,interval);});
}else{
  setTimeout(poll,interval);
}
})();`

// injectDeferredBootstrap adds the skeleton styles, the pending-list
// global and the deferred script tag to the document head.
func injectDeferredBootstrap(doc *html.Node, site *domain.SiteConfig, pending []domain.PendingSegment, cfg config.DeferredConfig) {
	if len(pending) == 0 {
		return
	}

	payload := struct {
		Lang     string                  `json:"lang"`
		Endpoint string                  `json:"endpoint"`
		Interval int64                   `json:"interval"`
		MaxPolls int                     `json:"maxPolls"`
		Segments []domain.PendingSegment `json:"segments"`
	}{
		Lang:     site.TargetLang,
		Endpoint: PollEndpoint,
		Interval: cfg.PollInterval.Milliseconds(),
		MaxPolls: cfg.MaxPolls,
		Segments: pending,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}

	gq := goquery.NewDocumentFromNode(doc)
	head := gq.Find("head")
	if head.Length() == 0 {
		return
	}
	head.AppendHtml("<style>" + skeletonCSS + "</style>")
	head.AppendHtml("<script>window.__PANTOLINGO_DEFERRED__=" + string(encoded) + "</script>")
	head.AppendHtml(`<script src="` + ScriptEndpoint + `" defer></script>`)
}
