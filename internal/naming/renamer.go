package naming

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JamesPrial/scene-namer/pkg/config"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
	"github.com/JamesPrial/scene-namer/pkg/scene"
)

// KeepPolicy decides which member of a duplicate group keeps its name
type KeepPolicy string

const (
	// KeepFirst leaves the first member in ID order untouched
	KeepFirst KeepPolicy = "first"
	// KeepNone suffixes every member of the group
	KeepNone KeepPolicy = "none"
)

// Options configure a Renamer
type Options struct {
	Suffix      SuffixPolicy
	MaxSuffix   int
	UnnamedBase string
	Keep        KeepPolicy
}

// OptionsFromConfig builds renamer options from rename settings
func OptionsFromConfig(rs config.RenameSettings) (Options, error) {
	policy, err := ParseSuffix(rs.SuffixTemplate())
	if err != nil {
		return Options{}, err
	}
	return Options{
		Suffix:      policy,
		MaxSuffix:   rs.MaxSuffix,
		UnnamedBase: rs.UnnamedBase,
		Keep:        KeepPolicy(rs.Keep),
	}, nil
}

// Rename is one planned name change
type Rename struct {
	ID      string
	OldName string
	NewName string
}

// Skip is an entity that needed a new name but could not be given one
type Skip struct {
	ID   string
	Name string
	Err  error
}

// Plan is an ordered set of renames. Every NewName is distinct from every
// other NewName and from every name that existed before planning.
type Plan struct {
	Renames []Rename
	Skipped []Skip
}

// Len returns the number of planned renames
func (p *Plan) Len() int {
	return len(p.Renames)
}

// Empty reports whether the plan changes nothing
func (p *Plan) Empty() bool {
	return len(p.Renames) == 0 && len(p.Skipped) == 0
}

// NameWriter writes one entity name back to the host document
type NameWriter interface {
	WriteName(ctx context.Context, id, name string) error
}

// Failure is a planned rename the host refused
type Failure struct {
	Rename
	Err error
}

// Result is the outcome of applying a plan
type Result struct {
	DryRun   bool
	Renamed  int
	Failures []Failure
	// Final classifies the working set under its post-plan names
	Final *NameIndex
}

// Renamer computes and applies rename plans
type Renamer struct {
	opts   Options
	logger *slog.Logger
}

// NewRenamer validates opts and returns a renamer
func NewRenamer(opts Options) (*Renamer, error) {
	if opts.Suffix.String() == "" {
		return nil, errors.ValidationRequired("suffix")
	}
	if opts.MaxSuffix <= 0 {
		opts.MaxSuffix = config.DefaultMaxSuffix
	}
	if strings.TrimSpace(opts.UnnamedBase) == "" {
		opts.UnnamedBase = "Object"
	}
	switch opts.Keep {
	case "":
		opts.Keep = KeepFirst
	case KeepFirst, KeepNone:
	default:
		return nil, errors.ValidationInvalid("keep", "must be 'first' or 'none'")
	}

	return &Renamer{
		opts:   opts,
		logger: logging.GetGlobalLogger("naming.renamer"),
	}, nil
}

// Plan walks the duplicate groups of index in name order and picks a new
// name for every member that does not keep its own. Candidates are checked
// against universe plus everything already committed in this plan; each
// entity's counter starts again at 1. An entity whose search reaches
// MaxSuffix is skipped with SUFFIX_SEARCH_EXHAUSTED and planning continues.
func (r *Renamer) Plan(ctx context.Context, index *NameIndex, universe map[string]struct{}) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeContextCanceled, "planning canceled")
	}

	timer := logging.StartTimer(ctx, r.logger, "plan")
	defer timer.End()

	oracle := NewOracle(universe)
	for _, g := range index.Groups {
		if g.Name != "" {
			oracle.Claim(g.Name)
		}
	}

	plan := &Plan{}
	for _, group := range index.Duplicates() {
		members := group.IDs
		if r.opts.Keep == KeepFirst {
			members = members[1:]
		}

		base := group.Name
		if strings.TrimSpace(base) == "" {
			base = r.opts.UnnamedBase
		}

		for _, id := range members {
			newName, err := r.search(oracle, base)
			if err != nil {
				r.logger.WarnContext(ctx, "Suffix search exhausted",
					slog.String("entity_id", id),
					slog.String("name", group.Name),
					slog.Int("max_suffix", r.opts.MaxSuffix),
					slog.String("error", errors.GetMessage(err)),
				)
				plan.Skipped = append(plan.Skipped, Skip{ID: id, Name: group.Name, Err: err})
				continue
			}
			if newName == group.Name {
				continue
			}
			plan.Renames = append(plan.Renames, Rename{ID: id, OldName: group.Name, NewName: newName})
		}
	}

	r.logger.DebugContext(ctx, "Rename plan built",
		slog.Int("duplicate_groups", index.DuplicateGroupCount),
		slog.Int("renames", len(plan.Renames)),
		slog.Int("skipped", len(plan.Skipped)),
	)
	return plan, nil
}

// search returns the first free candidate for base and claims it.
// Candidates never shrink as n grows, so the first one longer than
// scene.MaxNameLength ends the search.
func (r *Renamer) search(oracle *Oracle, base string) (string, error) {
	for n := 1; n <= r.opts.MaxSuffix; n++ {
		candidate := r.opts.Suffix.Candidate(base, n)
		if len(candidate) > scene.MaxNameLength {
			return "", errors.Newf(errors.ErrCodeSuffixSearchExhausted,
				"no free name for '%s' within %d characters", base, scene.MaxNameLength)
		}
		if oracle.Claim(candidate) {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ErrCodeSuffixSearchExhausted,
		"no free name for '%s' within %d suffixes", base, r.opts.MaxSuffix)
}

// Apply writes plan through writer in plan order. A dry run writes nothing
// and reports Renamed as 0. A rejected write is recorded as WRITE_REJECTED
// and the remaining renames are still attempted; nothing is rolled back.
// Cancellation is honored only before the first write: once writing starts
// every entry is attempted. Final is the index of ws under the names the
// plan produced: projected for a dry run, actual for a real one.
func (r *Renamer) Apply(ctx context.Context, ws *WorkingSet, plan *Plan, writer NameWriter, dryRun bool) (*Result, error) {
	timer := logging.StartTimer(ctx, r.logger, "apply")
	defer timer.End()

	result := &Result{DryRun: dryRun}
	names := ws.Names()

	if !dryRun && plan.Len() > 0 {
		if err := ctx.Err(); err != nil {
			result.Final = indexNames(ws, names)
			return result, errors.Wrap(err, errors.ErrCodeContextCanceled, "apply canceled")
		}
	}
	writeCtx := context.WithoutCancel(ctx)

	for _, rn := range plan.Renames {
		if dryRun {
			names[rn.ID] = rn.NewName
			continue
		}
		if err := writer.WriteName(writeCtx, rn.ID, rn.NewName); err != nil {
			wrapped := errors.Wrapf(err, errors.ErrCodeWriteRejected, "could not rename '%s' to '%s'", rn.OldName, rn.NewName)
			r.logger.WarnContext(ctx, "Name write rejected",
				slog.String("entity_id", rn.ID),
				slog.String("new_name", rn.NewName),
				slog.String("error", err.Error()),
			)
			result.Failures = append(result.Failures, Failure{Rename: rn, Err: wrapped})
			continue
		}
		names[rn.ID] = rn.NewName
		result.Renamed++
	}

	result.Final = indexNames(ws, names)
	r.logger.InfoContext(ctx, "Rename plan applied",
		slog.Bool("dry_run", dryRun),
		slog.Int("renamed", result.Renamed),
		slog.Int("failed", len(result.Failures)),
		slog.Int("remaining_duplicate_groups", result.Final.DuplicateGroupCount),
	)
	return result, nil
}

func indexNames(ws *WorkingSet, names map[string]string) *NameIndex {
	projected := make([]scene.Entity, len(ws.Entities))
	for i, e := range ws.Entities {
		e.Name = names[e.ID]
		projected[i] = e
	}
	return BuildIndex(projected)
}
