package training

import (
	"sort"

	"github.com/mcc4mcc/mcc4mcc/internal/results"
)

// BuildKnown computes, for each examination, the tools that solved each
// instance ordered by time, and for each model the tools ordered by how
// many of its instances they solved and then by mean time.
func BuildKnown(ds *results.Dataset) KnownLookup {
	known := make(KnownLookup)

	type pairKey struct{ examination, instance string }
	fastest := make(map[pairKey]map[string]*results.Record)
	var pairOrder []pairKey
	for _, r := range ds.Records {
		key := pairKey{r.Examination, r.Instance}
		byTool, ok := fastest[key]
		if !ok {
			byTool = make(map[string]*results.Record)
			fastest[key] = byTool
			pairOrder = append(pairOrder, key)
		}
		if prev, ok := byTool[r.Tool]; !ok || r.Time < prev.Time {
			byTool[r.Tool] = r
		}
	}

	type modelKey struct{ examination, model string }
	type aggregate struct {
		tool   string
		solved int
		time   float64
		memory float64
	}
	models := make(map[modelKey]map[string]*aggregate)

	for _, key := range pairOrder {
		byTool := fastest[key]
		recs := make([]*results.Record, 0, len(byTool))
		for _, r := range byTool {
			recs = append(recs, r)
		}
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].Time != recs[j].Time {
				return recs[i].Time < recs[j].Time
			}
			return recs[i].Tool < recs[j].Tool
		})

		entries := make([]KnownEntry, 0, len(recs))
		for _, r := range recs {
			entries = append(entries, KnownEntry{Tool: r.Tool, Time: ptr(r.Time), Memory: ptr(r.Memory)})
		}
		if known[key.examination] == nil {
			known[key.examination] = make(map[string][]KnownEntry)
		}
		known[key.examination][key.instance] = entries

		mk := modelKey{key.examination, recs[0].Model.ID()}
		if models[mk] == nil {
			models[mk] = make(map[string]*aggregate)
		}
		for _, r := range recs {
			agg, ok := models[mk][r.Tool]
			if !ok {
				agg = &aggregate{tool: r.Tool}
				models[mk][r.Tool] = agg
			}
			agg.solved++
			agg.time += r.Time
			agg.memory += r.Memory
		}
	}

	for mk, byTool := range models {
		aggs := make([]*aggregate, 0, len(byTool))
		for _, a := range byTool {
			aggs = append(aggs, a)
		}
		sort.Slice(aggs, func(i, j int) bool {
			if aggs[i].solved != aggs[j].solved {
				return aggs[i].solved > aggs[j].solved
			}
			ti := aggs[i].time / float64(aggs[i].solved)
			tj := aggs[j].time / float64(aggs[j].solved)
			if ti != tj {
				return ti < tj
			}
			return aggs[i].tool < aggs[j].tool
		})
		entries := make([]KnownEntry, 0, len(aggs))
		for _, a := range aggs {
			n := float64(a.solved)
			entries = append(entries, KnownEntry{Tool: a.tool, Time: ptr(a.time / n), Memory: ptr(a.memory / n)})
		}
		// An instance entry wins over a model entry of the same name.
		if _, taken := known[mk.examination][mk.model]; !taken {
			known[mk.examination][mk.model] = entries
		}
	}

	return known
}

func ptr(f float64) *float64 {
	return &f
}
