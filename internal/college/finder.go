package college

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"careerpilot/internal/logging"
	"careerpilot/internal/pipeline"
	"careerpilot/internal/store"
)

// Detail resolution sources.
const (
	SourceCache     = "cache"
	SourceExtracted = "extracted"
)

// DetailsStore is the slice of the cache store the finder needs.
type DetailsStore interface {
	GetCollegeDetails(college, degree, branch string) (*store.CollegeDetailRecord, error)
	SaveCollegeDetails(rec *store.CollegeDetailRecord) (*store.CollegeDetailRecord, error)
}

// DetailExtractor fetches details when the cache misses.
type DetailExtractor interface {
	Extract(ctx context.Context, collegeName, degree, branch string) (*Details, error)
}

// Finder combines the probe fan-out with tiered detail resolution.
type Finder struct {
	fanout    *Fanout
	extractor DetailExtractor
	store     DetailsStore
}

// NewFinder wires the fan-out, extractor and store together.
func NewFinder(fanout *Fanout, extractor DetailExtractor, st DetailsStore) *Finder {
	return &Finder{fanout: fanout, extractor: extractor, store: st}
}

// DetailResolution is a resolved detail record with its provenance.
type DetailResolution struct {
	Source  string
	Details *Details
}

// ResolveDetails returns cached details for the program or extracts
// and persists fresh ones. The composite key is first-writer-wins: a
// lost insert race returns the surviving row, not the fresh
// extraction.
func (f *Finder) ResolveDetails(ctx context.Context, collegeName, degree, branch string) (*DetailResolution, error) {
	cached, err := f.store.GetCollegeDetails(collegeName, degree, branch)
	if err == nil {
		logging.Resolver("Details cache hit for %s (%s %s)", collegeName, degree, branch)
		d, err := decodeDetails(cached.Payload)
		if err != nil {
			return nil, pipeline.Errorf(pipeline.CodeUnexpected, "corrupt cached details for %s: %v", collegeName, err)
		}
		return &DetailResolution{Source: SourceCache, Details: d}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, pipeline.Errorf(pipeline.CodeUnexpected, "details cache lookup failed: %v", err)
	}

	logging.Resolver("Details cache miss for %s, extracting", collegeName)
	extracted, err := f.extractor.Extract(ctx, collegeName, degree, branch)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(extracted)
	if err != nil {
		return nil, pipeline.Errorf(pipeline.CodeUnexpected, "failed to encode details: %v", err)
	}
	saved, err := f.store.SaveCollegeDetails(&store.CollegeDetailRecord{
		College: collegeName,
		Degree:  degree,
		Branch:  branch,
		Payload: payload,
		Source:  SourceExtracted,
	})
	if err != nil {
		return nil, pipeline.Errorf(pipeline.CodeUnexpected, "failed to persist details: %v", err)
	}

	// A concurrent writer may have won the insert race; honor its row.
	if saved.ID != "" && string(saved.Payload) != string(payload) {
		d, err := decodeDetails(saved.Payload)
		if err != nil {
			return nil, pipeline.Errorf(pipeline.CodeUnexpected, "corrupt surviving details for %s: %v", collegeName, err)
		}
		return &DetailResolution{Source: SourceCache, Details: d}, nil
	}

	return &DetailResolution{Source: SourceExtracted, Details: extracted}, nil
}

// FindResult is the outcome of a full college search.
type FindResult struct {
	Offering    []College
	NotOffering []College

	// Details for the top-ranked offering college. Nil when no college
	// offers the program or detail resolution failed; a failure is
	// recorded in DetailsError and does not fail the search.
	TopDetails    *Details
	DetailsSource string
	DetailsError  error
}

// Find probes every college for the program, partitions the list, and
// resolves full details for the best-ranked offering college only.
func (f *Finder) Find(ctx context.Context, colleges []College, degree, branch string) *FindResult {
	sorted := make([]College, len(colleges))
	copy(sorted, colleges)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Ranked colleges first, best rank first.
		ri, rj := sorted[i].Rank, sorted[j].Rank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})

	logging.Probe("Checking %d colleges for %s in %s", len(sorted), degree, branch)
	results := f.fanout.ProbeAll(ctx, sorted, degree, branch)

	out := &FindResult{}
	for _, r := range results {
		if r.Offers {
			out.Offering = append(out.Offering, r.College)
		} else {
			out.NotOffering = append(out.NotOffering, r.College)
		}
	}
	logging.Probe("%d colleges offer the program, %d do not", len(out.Offering), len(out.NotOffering))

	if len(out.Offering) == 0 {
		return out
	}

	top := out.Offering[0]
	res, err := f.ResolveDetails(ctx, top.Name, degree, branch)
	if err != nil {
		logging.ResolverWarn("Detail resolution failed for top college %s: %v", top.Name, err)
		out.DetailsError = err
		return out
	}
	out.TopDetails = res.Details
	out.DetailsSource = res.Source
	return out
}

func decodeDetails(payload []byte) (*Details, error) {
	var d Details
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
