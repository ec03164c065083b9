package media

import (
	"context"

	"github.com/memobloom/memobloom/internal/timeline"
)

// ResolveRecords returns copies of recs with photo and voice references
// replaced by fetchable URLs. Content that fails to resolve is kept as is;
// the renderer still shows the card.
func (l *Library) ResolveRecords(ctx context.Context, recs []timeline.Record) []timeline.Record {
	out := make([]timeline.Record, len(recs))
	for i, r := range recs {
		out[i] = r
		if r.Type != timeline.TypePhoto && r.Type != timeline.TypeVoice {
			continue
		}
		if !IsRef(r.Content) {
			continue
		}
		if u, err := l.Resolve(ctx, r.Content); err == nil {
			out[i].Content = u
		}
	}
	return out
}
