package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"planboard/calendar"
	"planboard/clock"
	"planboard/config"
	"planboard/db"
	"planboard/grid"
)

// RebaseResult describes the window chosen at startup.
type RebaseResult struct {
	Layout   *grid.Layout
	FirstDay time.Time
	// Delta is the number of working days row 0 moved forward since the
	// previous start. Every cell moved up by that many rows.
	Delta   int
	Shifted int
	// Widened is set when cells from the previous session would have fallen
	// above row 0 and extra rows were kept above the usual window.
	Widened bool
}

// Rebaser shifts stored cells so that rows keep pointing at the same dates as
// real time moves on, and builds the layout of the displayed window.
type Rebaser struct {
	store *db.Store
	clock clock.Clock
	cfg   config.Config
	log   *zap.Logger
}

// NewRebaser creates a rebaser.
func NewRebaser(store *db.Store, c clock.Clock, cfg config.Config, log *zap.Logger) *Rebaser {
	return &Rebaser{store: store, clock: c, cfg: cfg, log: log}
}

// Run rebases the grid in one transaction.
func (r *Rebaser) Run(ctx context.Context) (*RebaseResult, error) {
	var res *RebaseResult
	err := r.store.Transaction(ctx, func(tx *db.Store) error {
		var err error
		res, err = r.run(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Rebaser) run(ctx context.Context, tx *db.Store) (*RebaseResult, error) {
	today := calendar.Truncate(r.clock.Now())

	marker, err := tx.GetFirstRowOrNone(ctx)
	if err != nil {
		return nil, err
	}
	lowest, err := tx.LowestCell(ctx)
	if err != nil {
		return nil, err
	}

	res := &RebaseResult{}
	first := today.AddDate(0, 0, -r.cfg.DaysInThePast)
	// Only stored cells can fall above row 0.
	if marker != nil && lowest != nil {
		oldFirstOccupied := calendar.AddWorkdays(marker.Date, lowest.Row)
		if oldFirstOccupied.Before(first) {
			first = oldFirstOccupied
			res.Widened = true
			r.log.Warn("Display window widened to keep existing tickets on the board",
				zap.String("first_day", oldFirstOccupied.Format(time.DateOnly)),
			)
		}
	}

	end := today.AddDate(0, 0, r.cfg.DaysInTheFuture)
	if next := calendar.NextWorkday(today); !end.After(next) {
		end = next.AddDate(0, 0, 1)
	}
	days := calendar.Workdays(first, end)
	res.FirstDay = days[0]

	if marker != nil {
		res.Delta = calendar.WorkdaysBetween(marker.Date, res.FirstDay)
	}
	res.Shifted, err = tx.ShiftCells(ctx, res.Delta)
	if err != nil {
		return nil, err
	}
	if err := tx.SetFirstRow(ctx, res.FirstDay); err != nil {
		return nil, err
	}

	members, err := tx.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	res.Layout = grid.New(days, names, r.cfg.ColumnBacklogName)

	r.log.Info("Grid rebased",
		zap.String("first_day", res.FirstDay.Format(time.DateOnly)),
		zap.Int("rows", len(days)),
		zap.Int("delta", res.Delta),
		zap.Int("shifted", res.Shifted),
	)
	return res, nil
}
