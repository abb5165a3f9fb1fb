package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbitapp/orbitsync/internal/config"
	"github.com/orbitapp/orbitsync/internal/logging"
)

// mergeSeparator joins both sides of a merged descriptive text field.
const mergeSeparator = "\n\n---\n\n"

// ResolutionEngine computes a single reconciled value for a detected
// conflict under a configurable policy.
type ResolutionEngine struct {
	conflicts func() config.ConflictConfig
	now       func() time.Time
}

// NewResolutionEngine creates a resolution engine. conflicts supplies the
// current conflict configuration; a nil clock defaults to time.Now.
func NewResolutionEngine(conflicts func() config.ConflictConfig, now func() time.Time) *ResolutionEngine {
	if now == nil {
		now = time.Now
	}
	return &ResolutionEngine{conflicts: conflicts, now: now}
}

// Resolve computes a resolution for the conflict. The strategy is the
// override when given, else the per-service override from configuration,
// else the configured default. Resolving with the manual strategy always
// fails with ErrManualResolution.
func (e *ResolutionEngine) Resolve(conflict *Conflict, override Strategy) (*Resolution, error) {
	strategy := override
	if strategy == "" {
		strategy = e.strategyFor(conflict)
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	logging.Debug("resolving conflict",
		logging.Conflict(conflict.ID),
		logging.Entity(conflict.EntityID),
		logging.Strategy(string(strategy)),
	)

	switch strategy {
	case StrategyAppWins:
		return e.resolveAppWins(conflict), nil
	case StrategyExternalWins:
		return e.resolveExternalWins(conflict), nil
	case StrategyLastWriteWins:
		return e.resolveLastWriteWins(conflict), nil
	case StrategyMerge:
		return e.resolveMerge(conflict), nil
	case StrategyManual:
		return nil, ErrManualResolution
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// strategyFor picks the configured strategy for a conflict: per-service
// override first, then the global default.
func (e *ResolutionEngine) strategyFor(conflict *Conflict) Strategy {
	cfg := e.conflicts()
	if s, ok := cfg.PerServiceStrategy[string(conflict.Service)]; ok && s != "" {
		return Strategy(s)
	}
	return Strategy(cfg.DefaultStrategy)
}

func (e *ResolutionEngine) resolveAppWins(conflict *Conflict) *Resolution {
	return &Resolution{
		Strategy:   StrategyAppWins,
		ResolvedBy: "system",
		ResolvedAt: e.now(),
		FinalValue: conflict.AppValue.Clone(),
	}
}

func (e *ResolutionEngine) resolveExternalWins(conflict *Conflict) *Resolution {
	return &Resolution{
		Strategy:   StrategyExternalWins,
		ResolvedBy: "system",
		ResolvedAt: e.now(),
		FinalValue: conflict.ExternalValue.Clone(),
	}
}

// resolveLastWriteWins keeps whichever side was modified strictly later;
// a tie defaults to the external side.
func (e *ResolutionEngine) resolveLastWriteWins(conflict *Conflict) *Resolution {
	if conflict.AppLastModified.After(conflict.ExternalLastModified) {
		return e.resolveAppWins(conflict)
	}
	return e.resolveExternalWins(conflict)
}

// resolveMerge starts from the local snapshot and combines mergeable
// fields: arrays take the set union, descriptive text concatenates both
// sides, titles and everything else keep the local value. The fields
// touched are recorded in MergedFields alongside the full final value.
func (e *ResolutionEngine) resolveMerge(conflict *Conflict) *Resolution {
	final := conflict.AppValue.Clone()
	merged := make(map[string]any, len(conflict.ConflictFields))

	for _, diff := range conflict.ConflictFields {
		value := diff.AppValue

		if diff.CanMerge {
			switch {
			case diff.FieldType == FieldArray:
				value = mergeArrays(diff.AppValue, diff.ExternalValue)
			case diff.FieldType == FieldString && isDescriptiveField(diff.Field):
				value = fmt.Sprintf("%v%s%v", diff.AppValue, mergeSeparator, diff.ExternalValue)
			}
			// Title-like fields and other mergeable scalars keep the
			// local value.
		}

		final.SetField(diff.Field, value)
		merged[diff.Field] = value
	}

	return &Resolution{
		Strategy:     StrategyMerge,
		ResolvedBy:   "system",
		ResolvedAt:   e.now(),
		FinalValue:   final,
		MergedFields: merged,
	}
}

func isDescriptiveField(field string) bool {
	return strings.Contains(field, "description") || strings.Contains(field, "notes")
}

// mergeArrays unions two list values, preserving app order and dropping
// duplicates.
func mergeArrays(app, external any) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range toStrings(app) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range toStrings(external) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// AutoResolve passes every open conflict through Resolve with the
// configured defaults. Failures are logged per conflict and do not abort
// the rest; the successfully computed resolutions are returned keyed by
// conflict id.
func (e *ResolutionEngine) AutoResolve(conflicts []*Conflict) map[string]*Resolution {
	resolved := make(map[string]*Resolution)
	for _, c := range conflicts {
		if !c.Open() {
			continue
		}
		res, err := e.Resolve(c, "")
		if err != nil {
			logging.Warn("auto-resolution failed",
				logging.Conflict(c.ID),
				logging.Entity(c.EntityID),
				logging.Err(err),
			)
			continue
		}
		resolved[c.ID] = res
	}
	return resolved
}
