package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/ledger"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
	"github.com/spf13/cobra"
)

type eventView struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	StartsAt   time.Time `json:"starts_at" yaml:"starts_at"`
	MenSpots   int       `json:"men_spots" yaml:"men_spots"`
	WomenSpots int       `json:"women_spots" yaml:"women_spots"`
	MenCount   int       `json:"men_signup_count" yaml:"men_signup_count"`
	WomenCount int       `json:"women_signup_count" yaml:"women_signup_count"`
}

type attendeeView struct {
	UserID     string    `json:"user_id" yaml:"user_id"`
	Name       string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Gender     string    `json:"gender" yaml:"gender"`
	SignedUpAt time.Time `json:"signed_up_at" yaml:"signed_up_at"`
}

type eventDetail struct {
	Event    eventView      `json:"event" yaml:"event"`
	Roster   []attendeeView `json:"roster" yaml:"roster"`
	Waitlist []attendeeView `json:"waitlist" yaml:"waitlist"`
}

func viewOf(ev models.Event) eventView {
	return eventView{
		ID:         ev.ID,
		Title:      ev.Title,
		StartsAt:   ev.StartsAt,
		MenSpots:   ev.MenSpots,
		WomenSpots: ev.WomenSpots,
		MenCount:   ev.MenSignupCount,
		WomenCount: ev.WomenSignupCount,
	}
}

func attendeeOf(userID string, a models.Attendee) attendeeView {
	return attendeeView{UserID: userID, Name: a.DisplayName, Gender: a.Gender.String(), SignedUpAt: a.SignedUpAt}
}

func printEvent(w io.Writer, ev eventView) {
	fmt.Fprintf(w, "%s  %s\n", ev.ID, ev.Title)
	if !ev.StartsAt.IsZero() {
		fmt.Fprintf(w, "  starts:  %s\n", ev.StartsAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  men:     %d/%d\n", ev.MenCount, ev.MenSpots)
	fmt.Fprintf(w, "  women:   %d/%d\n", ev.WomenCount, ev.WomenSpots)
}

// NewEventCommand creates the event command group.
func NewEventCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create, inspect and adjust events",
	}
	cmd.AddCommand(newEventCreateCommand(opts))
	cmd.AddCommand(newEventShowCommand(opts))
	cmd.AddCommand(newEventSpotsCommand(opts))
	cmd.AddCommand(newEventRemoveCommand(opts))
	return cmd
}

func newEventCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		title    string
		startsAt string
		men      int
		women    int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event with per-gender spot limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var start time.Time
			if startsAt != "" {
				t, err := time.Parse(time.RFC3339, startsAt)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --starts-at", err)
				}
				start = t
			}
			svc, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			ev, err := svc.Ledger.CreateEvent(cmd.Context(), ledger.EventSpec{
				Title:      title,
				StartsAt:   start,
				MenSpots:   men,
				WomenSpots: women,
			})
			if err != nil {
				return operationError("create failed", err)
			}
			view := viewOf(ev)
			return opts.formatter(cmd).Print(view, func(w io.Writer) { printEvent(w, view) })
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "event title")
	cmd.Flags().StringVar(&startsAt, "starts-at", "", "start time (RFC 3339)")
	cmd.Flags().IntVar(&men, "men", 0, "spots for men")
	cmd.Flags().IntVar(&women, "women", 0, "spots for women")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newEventShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show an event with its roster and waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			ev, err := svc.Ledger.Event(ctx, args[0])
			if err != nil {
				return operationError("lookup failed", err)
			}
			roster, err := svc.Ledger.Roster(ctx, args[0])
			if err != nil {
				return operationError("roster failed", err)
			}
			waiting, err := svc.Ledger.Waitlist(ctx, args[0])
			if err != nil {
				return operationError("waitlist failed", err)
			}

			detail := eventDetail{Event: viewOf(ev), Roster: []attendeeView{}, Waitlist: []attendeeView{}}
			for _, e := range roster {
				detail.Roster = append(detail.Roster, attendeeOf(e.UserID, e.Attendee))
			}
			for _, e := range waiting {
				detail.Waitlist = append(detail.Waitlist, attendeeOf(e.UserID, e.Attendee))
			}
			return opts.formatter(cmd).Print(detail, func(w io.Writer) {
				printEvent(w, detail.Event)
				fmt.Fprintf(w, "roster (%d):\n", len(detail.Roster))
				for _, a := range detail.Roster {
					fmt.Fprintf(w, "  %-24s %s\n", a.UserID, a.Gender)
				}
				fmt.Fprintf(w, "waitlist (%d):\n", len(detail.Waitlist))
				for i, a := range detail.Waitlist {
					fmt.Fprintf(w, "  %2d. %-20s %s\n", i+1, a.UserID, a.Gender)
				}
			})
		},
	}
}

func newEventSpotsCommand(opts *RootOptions) *cobra.Command {
	var men, women int
	cmd := &cobra.Command{
		Use:   "spots <event-id>",
		Short: "Change an event's spot limits",
		Long: `Change an event's spot limits.

Lowering a limit below the current count does not evict anyone; the
partition simply stays full until enough attendees leave.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Ledger.SetSpots(ctx, args[0], men, women); err != nil {
				return operationError("update failed", err)
			}
			ev, err := svc.Ledger.Event(ctx, args[0])
			if err != nil {
				return operationError("lookup failed", err)
			}
			view := viewOf(ev)
			return opts.formatter(cmd).Print(view, func(w io.Writer) { printEvent(w, view) })
		},
	}
	cmd.Flags().IntVar(&men, "men", 0, "spots for men")
	cmd.Flags().IntVar(&women, "women", 0, "spots for women")
	_ = cmd.MarkFlagRequired("men")
	_ = cmd.MarkFlagRequired("women")
	return cmd
}

func newEventRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <event-id> <user-id>",
		Short: "Remove an attendee, restore their credit and promote from the waitlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Ledger.RemoveBestEffort(ctx, args[0], args[1]); err != nil {
				return operationError("remove failed", err)
			}
			ev, err := svc.Ledger.Event(ctx, args[0])
			if err != nil {
				return operationError("lookup failed", err)
			}
			view := viewOf(ev)
			return opts.formatter(cmd).Print(view, func(w io.Writer) {
				fmt.Fprintf(w, "removed %s\n", args[1])
				printEvent(w, view)
			})
		},
	}
}
