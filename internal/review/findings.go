package review

import "sort"

// MergeFindings deduplicates findings: entries sharing the same location
// and category collapse to one Finding keeping the highest severity.
// Evidence and traceability of collapsed duplicates are merged into the
// survivor. The operation is idempotent and never drops a distinct
// (location, category) pair.
func MergeFindings(findings []Finding) []Finding {
	type key struct {
		location string
		category RiskCategory
	}

	order := make([]key, 0, len(findings))
	merged := make(map[key]Finding, len(findings))

	for _, f := range findings {
		k := key{location: f.Location, category: f.Category}
		existing, ok := merged[k]
		if !ok {
			order = append(order, k)
			merged[k] = f
			continue
		}
		if f.Severity.Rank() > existing.Severity.Rank() {
			// Keep the higher-severity description alongside its severity.
			existing.Severity = f.Severity
			existing.Description = f.Description
		}
		existing.Evidence = appendUnique(existing.Evidence, f.Evidence)
		if existing.TodoID == "" {
			existing.TodoID = f.TodoID
		}
		merged[k] = existing
	}

	out := make([]Finding, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}
	return out
}

// SortFindings orders findings by descending severity, then location,
// for stable report output.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		return findings[i].Location < findings[j].Location
	})
}

func appendUnique(dst []string, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			dst = append(dst, s)
		}
	}
	return dst
}
