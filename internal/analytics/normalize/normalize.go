// Package normalize turns heterogeneous raw store records into canonical
// chronological series.
//
// Every topic of the realtime store uses its own key names and timestamp
// encodings. The normalizer resolves both through ordered alias lists and
// never fails: unparseable values become null samples and unparseable
// timestamps fall back to the processing time.
package normalize

import (
	"sort"
	"time"

	"github.com/aquasense/aquasense/internal/analytics"
)

// Options controls timestamp resolution
type Options struct {
	// TimestampAliases defaults to DefaultTimestampAliases
	TimestampAliases []string
	// Location interprets zone-less timestamp strings; defaults to UTC
	Location *time.Location
	// UseIDAsTimestamp tries the record id when no timestamp alias parses.
	// Energy live records are keyed by their timestamp.
	UseIDAsTimestamp bool
	// Now supplies the fallback time for unparsed timestamps
	Now func() time.Time
}

// DefaultOptions returns options with the default alias list, UTC and the wall clock
func DefaultOptions() Options {
	return Options{
		TimestampAliases: DefaultTimestampAliases,
		Location:         time.UTC,
		Now:              time.Now,
	}
}

func (o Options) withDefaults() Options {
	if len(o.TimestampAliases) == 0 {
		o.TimestampAliases = DefaultTimestampAliases
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Normalize converts records into a chronological series for spec.
// Records missing every alias still produce a sample with a nil value.
// Equal timestamps keep the order in which records were given.
func Normalize(records []analytics.Record, spec FieldSpec, opts Options) analytics.Series {
	if len(records) == 0 {
		return analytics.Series{}
	}
	opts = opts.withDefaults()
	nowMs := opts.Now().UnixMilli()

	series := make(analytics.Series, 0, len(records))
	for _, r := range records {
		series = append(series, normalizeRecord(r, spec, opts, nowMs))
	}

	return series.SortChronological()
}

func normalizeRecord(r analytics.Record, spec FieldSpec, opts Options, nowMs int64) analytics.Sample {
	sample := analytics.Sample{
		ID:    r.ID,
		Value: spec.Value(r.Fields),
	}

	raw, _ := Lookup(r.Fields, opts.TimestampAliases)
	ts, ok := ToMillis(raw, opts.Location)
	if !ok && opts.UseIDAsTimestamp {
		ts, ok = ToMillis(r.ID, opts.Location)
	}
	if !ok {
		ts = nowMs
	}
	sample.TimestampMs = ts
	sample.TimestampParsed = ok
	return sample
}

// FromMap converts a decoded {id: record} object into records ordered by id.
// Push-style ids and timestamp keys sort chronologically this way.
func FromMap(m map[string]interface{}) []analytics.Record {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]analytics.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, analytics.NewRecord(id, m[id]))
	}
	return records
}
