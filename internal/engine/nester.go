package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/piwi3910/sheetnest/internal/model"
)

// progressEvery is how many placed parts pass between progress events.
const progressEvery = 25

// Nester places part instances onto as few boards as the greedy
// area-descending, bottom-left first-fit heuristic finds, per material.
type Nester struct {
	Settings model.Settings

	progress chan<- Progress
	logger   *zap.Logger
	cache    *Cache
}

// Option configures a Nester.
type Option func(*Nester)

// WithProgress sends advisory progress events to ch. Sends never block; events
// are dropped when the receiver is not keeping up.
func WithProgress(ch chan<- Progress) Option {
	return func(n *Nester) { n.progress = ch }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(n *Nester) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithCache reuses results for identical groups and settings.
func WithCache(c *Cache) Option {
	return func(n *Nester) { n.cache = c }
}

func New(settings model.Settings, opts ...Option) *Nester {
	n := &Nester{Settings: settings, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OptimizeBoards nests every material group in order and returns the boards
// in creation order. Parts that fit no board of their material in any allowed
// orientation are left out of the boards and listed in Result.Unplaced.
//
// The only errors are invalid settings and cancellation of ctx, which is
// checked before each new board is opened. On cancellation the boards
// finished so far are returned together with ctx.Err().
func (n *Nester) OptimizeBoards(ctx context.Context, groups model.MaterialGroups) (Result, error) {
	if err := n.Settings.Validate(); err != nil {
		return Result{}, err
	}

	var key string
	if n.cache != nil {
		var err error
		if key, err = Key(groups, n.Settings); err != nil {
			n.logger.Debug("nesting cache skipped", zap.Error(err))
		} else if cached, ok := n.cache.Get(key); ok {
			n.logger.Debug("nesting cache hit", zap.String("key", key))
			n.emit(Progress{Message: "Reused cached layout", Percent: 100})
			return cached, nil
		}
	}

	tracker := &progressTracker{total: groups.TotalInstances()}
	var result Result
	for _, g := range groups {
		n.emit(Progress{
			Material: g.Material,
			Message:  fmt.Sprintf("Nesting %d parts of %s", g.TotalInstances(), g.Material),
			Percent:  tracker.percent(),
		})

		boards, unplaced, err := n.nestGroup(ctx, g, tracker)
		result.Boards = append(result.Boards, boards...)
		result.Unplaced = append(result.Unplaced, unplaced...)
		if err != nil {
			return result, err
		}
	}

	n.emit(Progress{
		Message: fmt.Sprintf("Placed %d parts on %d boards", result.PlacedCount(), len(result.Boards)),
		Percent: 100,
	})

	if n.cache != nil && key != "" {
		n.cache.Add(key, result)
	}
	return result, nil
}

// nestGroup opens boards for one material until every part is placed or a
// fresh board accepts nothing.
func (n *Nester) nestGroup(ctx context.Context, g model.MaterialGroup, tracker *progressTracker) ([]*Board, []model.PartInstance, error) {
	stock, configured := n.Settings.StockFor(g.Material)
	if !configured {
		n.logger.Debug("no stock configured, using default sheet",
			zap.String("material", g.Material),
			zap.Float64("width", stock.Width),
			zap.Float64("height", stock.Height))
	}

	remaining := expand(g)
	kerf := n.Settings.KerfWidth

	var boards []*Board
	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			tracker.done += len(remaining)
			return boards, remaining, err
		}

		board := NewBoard(g.Material, stock)
		var carry []model.PartInstance
		for i := range remaining {
			part := remaining[i]
			if !TryPlace(&part, board, kerf, n.Settings.AllowRotation) {
				carry = append(carry, part)
				continue
			}
			tracker.done++
			if tracker.done%progressEvery == 0 {
				n.emit(Progress{
					Material: g.Material,
					Message:  fmt.Sprintf("Placed %d of %d parts", tracker.done, tracker.total),
					Percent:  tracker.percent(),
				})
			}
		}

		if len(board.Parts) == 0 {
			break
		}
		boards = append(boards, board)
		n.logger.Debug("board filled",
			zap.String("material", g.Material),
			zap.Int("board", len(boards)),
			zap.Int("parts", len(board.Parts)),
			zap.Float64("efficiency", board.Efficiency()))
		n.emit(Progress{
			Material: g.Material,
			Message:  fmt.Sprintf("Filled board %d of %s", len(boards), g.Material),
			Percent:  tracker.percent(),
		})
		remaining = carry
	}

	if len(remaining) > 0 {
		n.logger.Debug("parts do not fit any board",
			zap.String("material", g.Material),
			zap.Int("unplaced", len(remaining)))
	}
	tracker.done += len(remaining)
	return boards, remaining, nil
}

// expand turns every request into independent instances and sorts them by
// descending area. Ties keep input order.
func expand(g model.MaterialGroup) []model.PartInstance {
	parts := make([]model.PartInstance, 0, g.TotalInstances())
	for _, r := range g.Requests {
		for _, inst := range r.Instances() {
			inst.Material = g.Material
			parts = append(parts, inst)
		}
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Area() > parts[j].Area()
	})
	return parts
}

// TryPlace puts part on board in its current orientation if possible, else
// turned 90° when rotation is allowed, the part is not already rotated and
// its grain permits it. The rotated orientation is a copy that is only
// committed to *part once it has been placed; on failure *part is unchanged.
func TryPlace(part *model.PartInstance, board *Board, kerf float64, allowRotation bool) bool {
	if x, y, ok := board.FindBestPosition(*part, kerf); ok {
		*part = board.AddPart(*part, x, y, kerf)
		return true
	}

	if !allowRotation || part.Rotated {
		return false
	}
	turned, ok := part.Rotated90()
	if !ok {
		return false
	}
	if x, y, ok := board.FindBestPosition(turned, kerf); ok {
		*part = board.AddPart(turned, x, y, kerf)
		return true
	}
	return false
}
