package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"careerpilot/internal/logging"
	"careerpilot/internal/pipeline"
	"careerpilot/internal/store"
)

// Resolution sources, cheapest tier first.
const (
	SourceCache     = "cache"
	SourceTemplate  = "template"
	SourceGenerated = "llm_generated"
)

// Store is the slice of the cache store the resolver needs.
type Store interface {
	GetLatestRoadmap(career string) (*store.RoadmapRecord, error)
	GetActiveTemplate(career string) (*store.CareerTemplate, error)
	SaveRoadmap(rec *store.RoadmapRecord) error
}

// Generator produces a roadmap when no cached or curated answer
// exists.
type Generator interface {
	Generate(ctx context.Context, career, category string) (*Roadmap, error)
}

// NormalizeFunc canonicalizes raw career input.
type NormalizeFunc func(ctx context.Context, rawInput string) *NormalizeResult

// Resolution is a resolved roadmap with its provenance.
type Resolution struct {
	Source     string
	Career     string
	Category   string
	Confidence float64
	Roadmap    *Roadmap
}

// Resolver walks the tiers: normalize, then cache, then curated
// template, then generation. Results from the template and generation
// tiers are persisted so the next identical goal hits the cache.
type Resolver struct {
	normalize NormalizeFunc
	store     Store
	generator Generator
}

// NewResolver wires the tiers together.
func NewResolver(normalize NormalizeFunc, st Store, gen Generator) *Resolver {
	return &Resolver{normalize: normalize, store: st, generator: gen}
}

// Resolve turns a free-text career goal into a roadmap.
func (r *Resolver) Resolve(ctx context.Context, goalText string) (*Resolution, error) {
	logging.Resolver("Resolving career goal: %q", goalText)

	norm := r.normalize(ctx, goalText)
	if !norm.Valid {
		logging.ResolverWarn("Career goal rejected: %s", norm.Reason)
		return nil, pipeline.Errorf(pipeline.CodeInvalidCareerGoal, "%s", norm.Reason)
	}
	career, category := norm.Career, norm.Category

	// Tier 1: cache
	logging.Resolver("Checking cache for %q", career)
	cached, err := r.store.GetLatestRoadmap(career)
	if err == nil {
		logging.Resolver("Cache hit for %q (id=%s)", career, cached.ID)
		rm, err := decodeRoadmap(cached.Payload)
		if err != nil {
			return nil, pipeline.Errorf(pipeline.CodeUnexpected, "corrupt cached roadmap for %q: %v", career, err)
		}
		return &Resolution{
			Source:     SourceCache,
			Career:     career,
			Category:   cached.Category,
			Confidence: cached.Confidence,
			Roadmap:    rm,
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, pipeline.Errorf(pipeline.CodeUnexpected, "cache lookup failed: %v", err)
	}

	// Tier 2: curated template
	logging.Resolver("Checking templates for %q", career)
	tmpl, err := r.store.GetActiveTemplate(career)
	if err == nil {
		logging.Resolver("Template hit for %q (version %d)", career, tmpl.Version)
		rm, err := decodeRoadmap(tmpl.Payload)
		if err != nil {
			return nil, pipeline.Errorf(pipeline.CodeUnexpected, "corrupt template for %q: %v", career, err)
		}
		if rm.CareerName == "" {
			rm.CareerName = career
		}
		res := &Resolution{
			Source:     SourceTemplate,
			Career:     career,
			Category:   category,
			Confidence: 1.0, // curated templates are verified
			Roadmap:    rm,
		}
		if err := r.persist(goalText, res); err != nil {
			return nil, err
		}
		return res, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, pipeline.Errorf(pipeline.CodeUnexpected, "template lookup failed: %v", err)
	}

	// Tier 3: generation
	logging.Resolver("No cache or template for %q, generating", career)
	rm, err := r.generator.Generate(ctx, career, category)
	if err != nil {
		return nil, err
	}
	res := &Resolution{
		Source:     SourceGenerated,
		Career:     career,
		Category:   category,
		Confidence: 0.85, // default confidence for generated roadmaps
		Roadmap:    rm,
	}
	if err := r.persist(goalText, res); err != nil {
		return nil, err
	}
	logging.Resolver("Roadmap generated and persisted for %q", career)
	return res, nil
}

func (r *Resolver) persist(goalText string, res *Resolution) error {
	payload, err := json.Marshal(res.Roadmap)
	if err != nil {
		return pipeline.Errorf(pipeline.CodeUnexpected, "failed to encode roadmap: %v", err)
	}
	rec := &store.RoadmapRecord{
		GoalInput:  goalText,
		Career:     res.Career,
		Category:   res.Category,
		Payload:    payload,
		Source:     res.Source,
		Confidence: res.Confidence,
	}
	if err := r.store.SaveRoadmap(rec); err != nil {
		return pipeline.Errorf(pipeline.CodeUnexpected, "failed to persist roadmap: %v", err)
	}
	return nil
}

func decodeRoadmap(payload []byte) (*Roadmap, error) {
	var rm Roadmap
	if err := json.Unmarshal(payload, &rm); err != nil {
		return nil, fmt.Errorf("invalid roadmap payload: %w", err)
	}
	return &rm, nil
}
