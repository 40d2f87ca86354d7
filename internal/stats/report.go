package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.SessionRecord
	Best     *model.SessionRecord
	Pending  int
}

// BuildReport loads local sessions matching cfg.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	report := Report{Sessions: sessions}
	for i := range sessions {
		if report.Best == nil || sessions[i].Score > report.Best.Score {
			report.Best = &sessions[i]
		}
		if !sessions[i].Submitted {
			report.Pending++
		}
	}
	return report, nil
}

// Render writes the summary and trend lines for the report.
func (r Report) Render(w io.Writer, window int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	return RenderTrend(w, r.Sessions, window, 0)
}

// RenderPlot writes the summary followed by a line chart instead of sparklines.
func (r Report) RenderPlot(w io.Writer, window int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	return RenderCurves(w, r.Sessions, window, 0, defaultPlotHeight)
}
