package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quietgrove/intently/internal/config"
	"github.com/quietgrove/intently/internal/notify"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test configuration",
	}
	cmd.AddCommand(newTestRemindersCmd())
	return cmd
}

// stdoutNotifier prints fired reminders to stdout
type stdoutNotifier struct{}

func (stdoutNotifier) Show(title, body, tag string) {
	fmt.Printf("  [%s] %s: %s\n", tag, title, body)
}

func newTestRemindersCmd() *cobra.Command {
	var file string
	var dueDate string
	var dueTime string

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Dry-run the reminder ladder for a due date and time",
		Long:  "Shows which reminder offsets would be scheduled for a commitment due at the given date and time, using the configured offsets file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rem, err := config.LoadReminders(file)
			if err != nil {
				return fmt.Errorf("load reminders: %w", err)
			}
			loc, err := rem.Location()
			if err != nil {
				return err
			}

			due, err := time.ParseInLocation("2006-01-02 15:04", dueDate+" "+dueTime, loc)
			if err != nil {
				return fmt.Errorf("invalid due date/time: %w", err)
			}

			fmt.Printf("Offsets: %v\n", rem.Offsets)
			fmt.Printf("Due at:  %s\n", due.Format(time.RFC1123))

			scheduler := notify.NewScheduler(rem.Offsets, notify.StaticGate(notify.PermissionGranted), stdoutNotifier{},
				notify.WithLocation(loc),
			)
			id := uuid.New()
			count := scheduler.ScheduleReminders(id, "dry run", due)
			scheduler.Cancel(id)

			now := time.Now().In(loc)
			fmt.Printf("\n%d of %d reminders would fire:\n", count, len(rem.Offsets))
			for _, offset := range rem.Offsets {
				fireAt := due.Add(-offset)
				if fireAt.After(now) {
					fmt.Printf("  %6s before due  ->  %s\n", offset, fireAt.Format("15:04:05"))
				} else {
					fmt.Printf("  %6s before due  ->  already past, skipped\n", offset)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to reminders YAML file (optional, defaults apply)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "Due date (YYYY-MM-DD) (required)")
	cmd.Flags().StringVar(&dueTime, "due-time", "", "Due time (HH:MM) (required)")
	_ = cmd.MarkFlagRequired("due-date")
	_ = cmd.MarkFlagRequired("due-time")
	return cmd
}
