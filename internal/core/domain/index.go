package domain

import "time"

// IndexMetadata records the parameters the current index was built with.
// UpdatedAt is bookkeeping and takes no part in reindex decisions.
type IndexMetadata struct {
	SegmenterVersion string    `json:"segmenter_version"`
	MaxSpanRunes     int       `json:"max_span_runes"`
	SubSplitRunes    int       `json:"sub_split_runes"`
	SubSplitOverlap  int       `json:"sub_split_overlap"`
	EmbedModel       string    `json:"embed_model"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// NeedsReindex reports whether an index built with stored parameters is stale
// under current ones. An empty stored version means no index was built yet,
// which also requires a run.
func NeedsReindex(stored, current IndexMetadata) bool {
	if stored.SegmenterVersion != current.SegmenterVersion {
		return true
	}
	if stored.MaxSpanRunes != current.MaxSpanRunes {
		return true
	}
	if stored.SubSplitRunes != current.SubSplitRunes {
		return true
	}
	if stored.SubSplitOverlap != current.SubSplitOverlap {
		return true
	}
	return stored.EmbedModel != current.EmbedModel
}
