package main

import (
	"context"
	"fmt"
	"time"
)

// runReports triggers the weekly aggregation from the command line, for
// cron or for backfilling a past week via -at.
func (cli *commandLine) runReports(at time.Time) error {
	summary, err := cli.repSvc.Run(context.Background(), at)
	if err != nil {
		return err
	}
	fmt.Printf(
		"week %s..%s: %d succeeded, %d failed\n",
		summary.WeekStart.Format("2006-01-02"), summary.WeekEnd.Format("2006-01-02"),
		summary.Succeeded, summary.Failed)
	return nil
}
