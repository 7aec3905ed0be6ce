package domain

import "fmt"

// Translation is the per-segment result of the cache merge. It is either
// ready (carries text) or still pending under a hash. Modelled as a tagged
// variant so the applicator never has to interpret empty strings.
type Translation struct {
	text  string
	hash  string
	ready bool
}

// ReadyTranslation wraps a finished translation.
func ReadyTranslation(text string) Translation {
	return Translation{text: text, ready: true}
}

// PendingTranslation marks a segment whose translation has not landed yet.
func PendingTranslation(hash string) Translation {
	return Translation{hash: hash}
}

func (t Translation) Ready() bool  { return t.ready }
func (t Translation) Text() string { return t.text }
func (t Translation) Hash() string { return t.hash }

// TranslationRecord is one (hash -> translated) pair persisted for a site
// and target language.
type TranslationRecord struct {
	Hash       string
	Translated string
}

// PathnameRecord maps a normalised original pathname to its normalised
// translated form. Both directions are indexed by the store.
type PathnameRecord struct {
	Original   string
	Translated string
}

// InFlightKey identifies a translation that has been dispatched but has not
// yet been persisted.
type InFlightKey struct {
	SiteID     string
	TargetLang string
	Hash       string
}

func (k InFlightKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.SiteID, k.TargetLang, k.Hash)
}

// TranslatorUsage aggregates provider-side accounting across batches.
type TranslatorUsage struct {
	Requests         int64
	PromptTokens     int64
	CompletionTokens int64
}

// Add merges usage from one batch into the running total.
func (u *TranslatorUsage) Add(other TranslatorUsage) {
	u.Requests += other.Requests
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}
