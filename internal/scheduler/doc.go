// Package scheduler запускает периодические задачи узла по cron-расписанию.
//
// Используется для отчёта о вознаграждениях кошелька (ACCOUNT_INFO_SCHEDULE)
// независимо от цикла обработки task.
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Name:   "account-info",
//	    Expr:   "@every 1h",
//	    Job:    w.ReportAccount,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	go sched.Run(ctx)
package scheduler
