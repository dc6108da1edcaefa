package suite

import (
	"context"
	"net/http"
	"time"

	"github.com/sysme/poscheck/internal/check"
	"github.com/sysme/poscheck/internal/posapi"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/session"
)

// SalesReport verifies the reporting contract: the response echoes the
// requested date range exactly (ISO string equality) and sales_items is
// always a list, even when the range contains no sales.
func SalesReport() scenario.Scenario {
	return scenario.Scenario{
		Name:        "sales-report",
		Description: "sales report date-range echo and payload shape",
		Setup:       reportSetup,
		Act:         reportAct,
		Verify:      reportVerify,
	}
}

func reportSetup(ctx context.Context, sc *scenario.Context) error {
	tok, err := sc.Sessions.Acquire(ctx, session.RoleAdmin)
	if err != nil {
		return err
	}
	sc.Put("token", tok.Value)

	now := time.Now()
	sc.Put("start_date", now.AddDate(0, 0, -7).Format("2006-01-02"))
	sc.Put("end_date", now.Format("2006-01-02"))
	return nil
}

func reportAct(ctx context.Context, sc *scenario.Context) error {
	resp, err := sc.API.SalesReport(ctx, sc.GetString("token"),
		sc.GetString("start_date"), sc.GetString("end_date"))
	if err != nil {
		return err
	}
	sc.Put("report", resp)
	return nil
}

func reportVerify(ctx context.Context, sc *scenario.Context) error {
	resp := sc.Get("report").(*posapi.Response)

	if err := sc.Check(check.Status(resp.Status, http.StatusOK)); err != nil {
		return err
	}
	body := obj(resp)
	if err := sc.CheckAll(check.Schema(body, "total_sales", "total_transactions", "date_range", "sales_items")); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "total_sales", check.NonNegativeNumber)); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "total_transactions", check.NonNegativeNumber)); err != nil {
		return err
	}
	if err := sc.Check(check.Field(body, "sales_items", check.IsList)); err != nil {
		return err
	}

	dateRange, ok := body["date_range"].(map[string]any)
	if !ok {
		return sc.Check(&check.Failure{
			Check:    "date_range",
			Expected: "date_range object",
			Actual:   "not an object",
			Severity: check.Hard,
		})
	}
	if err := sc.Check(check.Echo("date_range.start_date", sc.GetString("start_date"), dateRange["start_date"])); err != nil {
		return err
	}
	return sc.Check(check.Echo("date_range.end_date", sc.GetString("end_date"), dateRange["end_date"]))
}
