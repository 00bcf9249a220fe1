package logging

// Convenience functions for quick logging without getting a logger
// first. These are no-ops if the category is disabled.

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// API logs to the api category.
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Info(format, args...)
}

// APIDebug logs a debug message to the api category.
func APIDebug(format string, args ...interface{}) {
	Get(CategoryAPI).Debug(format, args...)
}

// APIError logs an error to the api category.
func APIError(format string, args ...interface{}) {
	Get(CategoryAPI).Error(format, args...)
}

// Normalizer logs to the normalizer category.
func Normalizer(format string, args ...interface{}) {
	Get(CategoryNormalizer).Info(format, args...)
}

// NormalizerWarn logs a warning to the normalizer category.
func NormalizerWarn(format string, args ...interface{}) {
	Get(CategoryNormalizer).Warn(format, args...)
}

// NormalizerError logs an error to the normalizer category.
func NormalizerError(format string, args ...interface{}) {
	Get(CategoryNormalizer).Error(format, args...)
}

// Planner logs to the planner category.
func Planner(format string, args ...interface{}) {
	Get(CategoryPlanner).Info(format, args...)
}

// PlannerWarn logs a warning to the planner category.
func PlannerWarn(format string, args ...interface{}) {
	Get(CategoryPlanner).Warn(format, args...)
}

// PlannerError logs an error to the planner category.
func PlannerError(format string, args ...interface{}) {
	Get(CategoryPlanner).Error(format, args...)
}

// Probe logs to the probe category.
func Probe(format string, args ...interface{}) {
	Get(CategoryProbe).Info(format, args...)
}

// ProbeDebug logs a debug message to the probe category.
func ProbeDebug(format string, args ...interface{}) {
	Get(CategoryProbe).Debug(format, args...)
}

// ProbeWarn logs a warning to the probe category.
func ProbeWarn(format string, args ...interface{}) {
	Get(CategoryProbe).Warn(format, args...)
}

// Extractor logs to the extractor category.
func Extractor(format string, args ...interface{}) {
	Get(CategoryExtractor).Info(format, args...)
}

// ExtractorWarn logs a warning to the extractor category.
func ExtractorWarn(format string, args ...interface{}) {
	Get(CategoryExtractor).Warn(format, args...)
}

// ExtractorError logs an error to the extractor category.
func ExtractorError(format string, args ...interface{}) {
	Get(CategoryExtractor).Error(format, args...)
}

// Resolver logs to the resolver category.
func Resolver(format string, args ...interface{}) {
	Get(CategoryResolver).Info(format, args...)
}

// ResolverWarn logs a warning to the resolver category.
func ResolverWarn(format string, args ...interface{}) {
	Get(CategoryResolver).Warn(format, args...)
}

// Store logs to the store category.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs a debug message to the store category.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}
