package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"budgetviz/internal/core"
	"budgetviz/internal/recurrence"
	"budgetviz/internal/services"
)

// NewRootCommand builds the budgetctl command tree over svc.
func NewRootCommand(svc *services.BudgetService) *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Monthly budget ledger",
		Long:          "Record transactions, expand recurring series and plan monthly budgets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAddCmd(svc),
		newEditCmd(svc),
		newDeleteCmd(svc),
		newMonthCmd(svc),
		newSeriesCmd(svc),
		newBudgetCmd(svc),
	)
	return root
}

type txFlags struct {
	desc     string
	amount   string
	kind     string
	category string
	date     string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.desc, "desc", "d", "", "Description")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVarP(&f.kind, "type", "t", "expense", "income or expense")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Expense category")
	cmd.Flags().StringVar(&f.date, "date", "", "Date as YYYY-MM-DD (default today)")
}

// apply overrides base with every flag the user set on cmd. A new date keeps
// base's time of day.
func (f *txFlags) apply(cmd *cobra.Command, base core.Template, loc *time.Location) (core.Template, error) {
	tpl := base
	changed := cmd.Flags().Changed
	if changed("desc") {
		tpl.Description = strings.TrimSpace(f.desc)
	}
	if changed("amount") {
		amount, err := core.ParseAmount(f.amount)
		if err != nil {
			return core.Template{}, err
		}
		tpl.Amount = amount
	}
	if changed("type") || tpl.Kind == "" {
		kind, err := core.ParseKind(f.kind)
		if err != nil {
			return core.Template{}, err
		}
		tpl.Kind = kind
	}
	if changed("category") {
		cat, err := core.ParseCategory(f.category)
		if err != nil {
			return core.Template{}, err
		}
		tpl.Category = cat
	}
	if changed("date") {
		d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(f.date), loc)
		if err != nil {
			return core.Template{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, f.date)
		}
		tpl.Date = core.WithCalendarDate(base.Date.In(loc), d.Year(), d.Month(), d.Day())
	}
	return tpl, nil
}

func newAddCmd(svc *services.BudgetService) *cobra.Command {
	var (
		flags  txFlags
		repeat int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction, optionally repeating monthly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().In(svc.Location())
			base := core.Template{Date: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())}
			tpl, err := flags.apply(cmd, base, svc.Location())
			if err != nil {
				return err
			}
			created, err := svc.AddTransaction(cmd.Context(), tpl, repeat)
			if err := report(cmd, err); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(transactionTable(fmt.Sprintf("Added %d", len(created)), created)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&repeat, "repeat", "r", 0, "Additional monthly occurrences")
	return cmd
}

func newEditCmd(svc *services.BudgetService) *cobra.Command {
	var (
		flags txFlags
		scope string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a transaction or the rest of its series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := recurrence.ParseScope(scope)
			if err != nil {
				return err
			}
			tx, err := resolveTransaction(svc, args[0])
			if err != nil {
				return err
			}
			fields, err := flags.apply(cmd, tx.Template(), svc.Location())
			if err != nil {
				return err
			}
			changed, err := svc.EditTransaction(cmd.Context(), tx.ID, fields, sc)
			if err := report(cmd, err); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(transactionTable(fmt.Sprintf("Updated %d", len(changed)), changed)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&scope, "scope", "s", string(recurrence.ThisOnly), "this or future")
	return cmd
}

func newDeleteCmd(svc *services.BudgetService) *cobra.Command {
	var scope, series string
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction or the rest of its series",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sc recurrence.Scope
			if cmd.Flags().Changed("scope") {
				parsed, err := recurrence.ParseScope(scope)
				if err != nil {
					return err
				}
				sc = parsed
			}
			tx, err := resolveTransaction(svc, args[0])
			if err != nil {
				return err
			}
			n, err := svc.DeleteTransaction(cmd.Context(), tx.ID, series, sc)
			if err := report(cmd, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d transaction(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&scope, "scope", "s", "", "this or future (required for series members)")
	cmd.Flags().StringVar(&series, "series", "", "Series id (default: the transaction's own)")
	return cmd
}

func newMonthCmd(svc *services.BudgetService) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show a month's transactions and summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := viewFor(svc, args)
			if err != nil {
				return err
			}
			renderMonth(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func newSeriesCmd(svc *services.BudgetService) *cobra.Command {
	return &cobra.Command{
		Use:   "series SERIES_ID",
		Short: "List the members of a recurring series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members := svc.Series(args[0])
			if len(members) == 0 {
				return fmt.Errorf("series %s: %w", args[0], core.ErrNotFound)
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(transactionTable("Series "+args[0], members)))
			return nil
		},
	}
}

func newBudgetCmd(svc *services.BudgetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show, draft, set and import monthly budgets",
	}

	show := &cobra.Command{
		Use:   "show [YYYY-MM]",
		Short: "Show the budget in force for a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := viewFor(svc, args)
			if err != nil {
				return err
			}
			title := "Budget " + view.Key
			if !view.HasBudget {
				title += " (default)"
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(budgetTable(title, view.Budget)))
			renderBreakdown(cmd.OutOrStdout(), view)
			return nil
		},
	}

	draft := &cobra.Command{
		Use:   "draft [YYYY-MM]",
		Short: "Show the budget pre-filled from the previous month's recurring fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := viewFor(svc, args)
			if err != nil {
				return err
			}
			title := "Draft " + view.Key
			if view.PreviousBudget != nil && !view.Budget.Recurring.Any() {
				title += " from " + view.PreviousKey
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(budgetTable(title, view.Draft)))
			return nil
		},
	}

	cmd.AddCommand(show, draft, newBudgetSetCmd(svc), newBudgetImportCmd(svc))
	return cmd
}

func newBudgetSetCmd(svc *services.BudgetService) *cobra.Command {
	var (
		income, savings string
		expenses        []string
		recurring       []string
		fromDraft       bool
	)
	cmd := &cobra.Command{
		Use:   "set [YYYY-MM]",
		Short: "Save a month's budget",
		Long: "Save a month's budget. Unset fields keep the value currently shown for the month,\n" +
			"or the draft value with --from-draft.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := viewFor(svc, args)
			if err != nil {
				return err
			}
			b := view.Budget
			if fromDraft {
				b = view.Draft
			}

			if cmd.Flags().Changed("income") {
				if b.IncomeGoal, err = core.ParseBudgetAmount(income); err != nil {
					return fmt.Errorf("income: %w", err)
				}
			}
			if cmd.Flags().Changed("savings") {
				if b.SavingsGoal, err = core.ParseBudgetAmount(savings); err != nil {
					return fmt.Errorf("savings: %w", err)
				}
			}
			for _, kv := range expenses {
				name, raw, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("expense %q: want Category=amount", kv)
				}
				cat, err := core.ParseCategory(name)
				if err != nil {
					return err
				}
				v, err := core.ParseBudgetAmount(raw)
				if err != nil {
					return fmt.Errorf("%s: %w", cat, err)
				}
				b.ExpenseBudgets.Set(cat, v)
			}
			if cmd.Flags().Changed("recurring") {
				if b.Recurring, err = ParseRecurring(recurring); err != nil {
					return err
				}
			}

			err = svc.SaveBudgetFor(cmd.Context(), view.Key, b)
			if err := report(cmd, err); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(budgetTable("Saved "+view.Key, b)))
			return nil
		},
	}
	cmd.Flags().StringVar(&income, "income", "", "Income goal")
	cmd.Flags().StringVar(&savings, "savings", "", "Savings goal")
	cmd.Flags().StringArrayVarP(&expenses, "expense", "e", nil, "Category=amount, repeatable")
	cmd.Flags().StringSliceVar(&recurring, "recurring", nil, "Fields that carry forward: income, savings, category names")
	cmd.Flags().BoolVar(&fromDraft, "from-draft", false, "Start from the draft instead of the current budget")
	return cmd
}

func newBudgetImportCmd(svc *services.BudgetService) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import budgets from a TOML file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			budgets, err := ParseBudgetFile(r)
			if err != nil {
				return err
			}
			for _, ib := range budgets {
				err := svc.SaveBudgetFor(cmd.Context(), ib.Key, ib.Budget)
				if err := report(cmd, err); err != nil {
					return fmt.Errorf("%s: %w", ib.Key, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d budget(s)\n", len(budgets))
			return nil
		},
	}
}

// report turns a persistence failure into a warning on stderr. The change
// is in effect for this process but not saved.
func report(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrPersistence) {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("warning: "+err.Error()))
		return nil
	}
	return err
}

// resolveTransaction finds a transaction by full id or unique id prefix.
func resolveTransaction(svc *services.BudgetService, ref string) (core.Transaction, error) {
	if tx, err := svc.Transaction(ref); err == nil {
		return tx, nil
	}
	var matches []core.Transaction
	for _, tx := range svc.Ledger() {
		if strings.HasPrefix(tx.ID, ref) {
			matches = append(matches, tx)
		}
	}
	switch len(matches) {
	case 0:
		return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return core.Transaction{}, fmt.Errorf("id prefix %q matches %d transactions", ref, len(matches))
	}
}

func viewFor(svc *services.BudgetService, args []string) (services.MonthView, error) {
	if len(args) == 0 {
		return svc.MonthView(), nil
	}
	t, err := core.ParseKey(args[0], svc.Location())
	if err != nil {
		return services.MonthView{}, err
	}
	return svc.MonthViewAt(t), nil
}
