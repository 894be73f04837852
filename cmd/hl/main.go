package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hiveline/internal/config"
	"hiveline/internal/db"
	"hiveline/internal/domain"
	"hiveline/internal/engine"
	"hiveline/internal/migrate"
	"hiveline/internal/repo"
	"hiveline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hl",
	Short: "Hiveline CLI",
	Long: `Hiveline tracks recurring multi-step tasks assigned to hives.
- Workspace: the .hiveline directory holding the SQLite database.
- Tasks: reusable templates made of ordered steps.
- Assignments: one task given to one hive; every participant gets every step.
- Progress: a one-way pending -> completed ledger; when the last row flips,
  the assignment is done.
- Sweeps: 'hl sweep' sends start, due-soon and overdue notifications and is
  safe to run as often as you like.
- History: every hive keeps an append-only event log, view with 'hl hive history'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HIVELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(hiveCmd())
	rootCmd.AddCommand(groupCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(assignmentCmd())
	rootCmd.AddCommand(stepCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(serveCmd())
}

func userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}
	user.AddCommand(userAddCmd())
	user.AddCommand(userListCmd())
	return user
}

func userAddCmd() *cobra.Command {
	var id, name, email, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u := domain.User{
					ID:        id,
					Name:      name,
					Email:     email,
					Role:      role,
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if u.ID == "" {
					u.ID = newID()
				}
				if err := e.Repo.InsertUser(ctx, u); err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (generated when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&role, "role", "user", "role (user, manager, admin)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListUsers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Role", "Email"})
				for _, u := range items {
					tw.AppendRow(table.Row{u.ID, u.Name, u.Role, u.Email})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func hiveCmd() *cobra.Command {
	hive := &cobra.Command{Use: "hive", Short: "Manage hives"}
	hive.AddCommand(hiveCreateCmd())
	hive.AddCommand(hiveListCmd())
	hive.AddCommand(hiveShowCmd())
	hive.AddCommand(hiveUpdateCmd())
	hive.AddCommand(hiveMemberCmd())
	hive.AddCommand(hiveNoteCmd())
	hive.AddCommand(hiveHistoryCmd())
	hive.AddCommand(hiveSummaryCmd())
	return hive
}

func hiveCreateCmd() *cobra.Command {
	var id, label, owner string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a hive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				now := time.Now().UTC().Format(time.RFC3339)
				h := domain.Hive{ID: id, Label: label, CreatedAt: now, UpdatedAt: now}
				if h.ID == "" {
					h.ID = newID()
				}
				if owner != "" {
					h.OwnerUserID = &owner
				}
				if err := e.Repo.InsertHive(ctx, h); err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "hive id (generated when omitted)")
	cmd.Flags().StringVar(&label, "label", "", "hive label")
	cmd.Flags().StringVar(&owner, "owner-id", "", "owner user id")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func hiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List hives",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListHives(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Label", "Owner"})
				for _, h := range items {
					owner := ""
					if h.OwnerUserID != nil {
						owner = *h.OwnerUserID
					}
					tw.AppendRow(table.Row{h.ID, h.Label, owner})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func hiveShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a hive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				h, err := r.GetHive(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
}

func hiveUpdateCmd() *cobra.Command {
	var label, owner string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a hive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.HiveUpdateOptions{ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("label") {
					opts.Label = &label
				}
				if cmd.Flags().Changed("owner-id") {
					opts.OwnerID = &owner
				}
				h, err := e.UpdateHive(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(h)
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&owner, "owner-id", "", "new owner user id (empty clears)")
	return cmd
}

func hiveMemberCmd() *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage hive members"}
	member.AddCommand(&cobra.Command{
		Use:   "add <hive-id> <user-id>",
		Short: "Add a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if _, err := r.GetHive(ctx, args[0]); err != nil {
					return err
				}
				if _, err := r.GetUser(ctx, args[1]); err != nil {
					return err
				}
				return r.AddHiveMember(ctx, args[0], args[1])
			})
		},
	})
	member.AddCommand(&cobra.Command{
		Use:   "remove <hive-id> <user-id>",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.RemoveHiveMember(ctx, args[0], args[1])
			})
		},
	})
	return member
}

func hiveNoteCmd() *cobra.Command {
	note := &cobra.Command{Use: "note", Short: "Manage manual notes"}

	var text string
	var attachments []string
	add := &cobra.Command{
		Use:   "add <hive-id>",
		Short: "Add a note to the hive history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evt, err := e.CreateManualNote(ctx, args[0], text, attachments, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(evt)
			})
		},
	}
	add.Flags().StringVar(&text, "text", "", "note text")
	add.Flags().StringSliceVar(&attachments, "attachment", nil, "attachment URL (repeatable)")
	_ = add.MarkFlagRequired("text")
	note.AddCommand(add)

	var editText string
	var editAttachments []string
	var noteID int64
	edit := &cobra.Command{
		Use:   "edit",
		Short: "Edit a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evt, err := e.UpdateManualNote(ctx, noteID, editText, editAttachments)
				if err != nil {
					return err
				}
				return printJSONOrTable(evt)
			})
		},
	}
	edit.Flags().Int64Var(&noteID, "id", 0, "note event id")
	edit.Flags().StringVar(&editText, "text", "", "note text")
	edit.Flags().StringSliceVar(&editAttachments, "attachment", nil, "attachment URL (repeatable)")
	_ = edit.MarkFlagRequired("id")
	_ = edit.MarkFlagRequired("text")
	note.AddCommand(edit)

	var deleteID int64
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteManualNote(ctx, deleteID)
			})
		},
	}
	del.Flags().Int64Var(&deleteID, "id", 0, "note event id")
	_ = del.MarkFlagRequired("id")
	note.AddCommand(del)

	return note
}

func hiveHistoryCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "history <hive-id>",
		Short: "Show hive history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.HiveHistory(ctx, args[0], page, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "At", "By", "Payload"})
				for _, evt := range p.Events {
					by := ""
					if evt.UserID != nil {
						by = *evt.UserID
					}
					tw.AppendRow(table.Row{evt.ID, evt.Type, evt.CreatedAt, by, evt.Payload})
				}
				tw.Render()
				fmt.Printf("page %d (%d total events)\n", p.Page, p.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default from config)")
	return cmd
}

func hiveSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <hive-id>",
		Short: "Show hive assignment summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Summary(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("Hive: %s\n", s.HiveID)
				fmt.Printf("Assignments: %d (%d overdue)\n", s.Assignments, s.Overdue)
				for status, c := range s.ByStatus {
					fmt.Printf("  %s: %d\n", status, c)
				}
				fmt.Printf("Completion: %.1f%%\n", s.CompletionPercent)
				return nil
			})
		},
	}
}

func groupCmd() *cobra.Command {
	group := &cobra.Command{Use: "group", Short: "Manage groups"}

	var id, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				g := domain.Group{ID: id, Name: name, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
				if g.ID == "" {
					g.ID = newID()
				}
				if err := r.InsertGroup(ctx, g); err != nil {
					return err
				}
				return printJSONOrTable(g)
			})
		},
	}
	create.Flags().StringVar(&id, "id", "", "group id (generated when omitted)")
	create.Flags().StringVar(&name, "name", "", "group name")
	_ = create.MarkFlagRequired("name")
	group.AddCommand(create)

	member := &cobra.Command{Use: "member", Short: "Manage group members"}
	member.AddCommand(&cobra.Command{
		Use:   "add <group-id> <user-id>",
		Short: "Add a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if _, err := r.GetGroup(ctx, args[0]); err != nil {
					return err
				}
				if _, err := r.GetUser(ctx, args[1]); err != nil {
					return err
				}
				return r.AddGroupMember(ctx, args[0], args[1])
			})
		},
	})
	group.AddCommand(member)
	return group
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage task templates"}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskStepAddCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var id, title, category string
	var dueWindow int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				now := time.Now().UTC().Format(time.RFC3339)
				actor := viper.GetString("actor-id")
				t := domain.Task{ID: id, Title: title, Category: category, CreatedAt: now}
				if t.ID == "" {
					t.ID = newID()
				}
				if cmd.Flags().Changed("due-window-days") {
					t.DueWindowDays = &dueWindow
				}
				if actor != "" {
					t.CreatedByUserID = &actor
				}
				if err := e.Repo.InsertTask(ctx, t); err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "task id (generated when omitted)")
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().IntVar(&dueWindow, "due-window-days", 0, "default due window in days")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListTasks(ctx, includeArchived)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Category", "Due window"})
				for _, t := range items {
					window := ""
					if t.DueWindowDays != nil {
						window = fmt.Sprintf("%d days", *t.DueWindowDays)
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Category, window})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&includeArchived, "archived", false, "include archived tasks")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				steps, err := r.ListTaskSteps(ctx, t.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"task": t, "steps": steps})
			})
		},
	}
}

func taskStepAddCmd() *cobra.Command {
	var taskID, title, content, mediaURL, mediaKind string
	var orderIndex int
	var requireMedia bool
	cmd := &cobra.Command{
		Use:   "step-add",
		Short: "Add a step to a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if _, err := r.GetTask(ctx, taskID); err != nil {
					return err
				}
				s := domain.TaskStep{
					ID:               newID(),
					TaskID:           taskID,
					OrderIndex:       orderIndex,
					Title:            title,
					RequireUserMedia: requireMedia,
					CreatedAt:        time.Now().UTC().Format(time.RFC3339),
				}
				if content != "" {
					s.ContentText = &content
				}
				if mediaURL != "" {
					s.MediaURL = &mediaURL
				}
				if mediaKind != "" {
					s.MediaKind = &mediaKind
				}
				if err := r.InsertTaskStep(ctx, s); err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	cmd.Flags().IntVar(&orderIndex, "order", 0, "step order index")
	cmd.Flags().StringVar(&title, "title", "", "step title")
	cmd.Flags().StringVar(&content, "content", "", "step content text")
	cmd.Flags().StringVar(&mediaURL, "media-url", "", "step media URL")
	cmd.Flags().StringVar(&mediaKind, "media-kind", "", "step media kind")
	cmd.Flags().BoolVar(&requireMedia, "require-evidence", false, "require evidence on completion")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func assignmentCmd() *cobra.Command {
	assignment := &cobra.Command{Use: "assignment", Short: "Manage assignments"}
	assignment.AddCommand(assignmentCreateCmd())
	assignment.AddCommand(assignmentBulkCmd())
	assignment.AddCommand(assignmentListCmd())
	assignment.AddCommand(assignmentShowCmd())
	assignment.AddCommand(assignmentDatesCmd())
	assignment.AddCommand(assignmentArchiveCmd(true))
	assignment.AddCommand(assignmentArchiveCmd(false))
	assignment.AddCommand(assignmentReviewCmd())
	assignment.AddCommand(assignmentRateCmd())
	return assignment
}

func assignmentCreateCmd() *cobra.Command {
	var taskID, hiveID, groupID, startDate, dueDate string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Assign a task to a hive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateAssignment(ctx, engine.AssignmentCreateOptions{
					TaskID:    taskID,
					HiveID:    hiveID,
					GroupID:   groupID,
					StartDate: startDate,
					DueDate:   dueDate,
					ActorID:   viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	cmd.Flags().StringVar(&hiveID, "hive", "", "hive id")
	cmd.Flags().StringVar(&groupID, "group", "", "group id (participants come from the group)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD, defaults from task due window)")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("hive")
	return cmd
}

func assignmentBulkCmd() *cobra.Command {
	var taskID, startDate, dueDate string
	var hiveIDs []string
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Assign a task to many hives at once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.CreateAssignmentsBulk(ctx, taskID, hiveIDs, startDate, dueDate, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	cmd.Flags().StringSliceVar(&hiveIDs, "hive", nil, "hive id (repeatable)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("hive")
	return cmd
}

func assignmentListCmd() *cobra.Command {
	var hiveID, status string
	var availableNow, includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListAssignments(ctx, engine.AssignmentListFilters{
					Repo:         repo.AssignmentFilters{HiveID: hiveID, IncludeArchived: includeArchived},
					ViewStatus:   status,
					AvailableNow: availableNow,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Task", "Hive", "Status", "Due", "Review"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.TaskID, a.HiveID, a.ViewStatus, a.DueDate, a.ReviewStatus})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&hiveID, "hive", "", "hive filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter (not_started, in_progress, done, overdue)")
	cmd.Flags().BoolVar(&availableNow, "available-now", false, "only assignments available to work on today")
	cmd.Flags().BoolVar(&includeArchived, "archived", false, "include archived")
	return cmd
}

func assignmentShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show assignment details with per-participant progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.AssignmentDetails(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				fmt.Printf("Assignment: %s (%s) task=%s hive=%s due=%s\n", d.Assignment.ID, d.ViewStatus, d.Task.Title, d.Assignment.HiveID, d.Assignment.DueDate)
				fmt.Printf("Completion: %.1f%%\n", d.CompletionPercent)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Participant", "Completed", "Total"})
				for _, p := range d.Participants {
					tw.AppendRow(table.Row{p.UserID, p.Completed, p.Total})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func assignmentDatesCmd() *cobra.Command {
	var startDate, dueDate string
	cmd := &cobra.Command{
		Use:   "dates <id>",
		Short: "Change assignment dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var startPtr *string
				if cmd.Flags().Changed("start") {
					startPtr = &startDate
				}
				a, err := e.UpdateAssignmentDates(ctx, args[0], startPtr, dueDate, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&startDate, "start", "", "start date (empty clears)")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date")
	return cmd
}

func assignmentArchiveCmd(archived bool) *cobra.Command {
	use, short := "archive <id>", "Archive an assignment"
	if !archived {
		use, short = "unarchive <id>", "Unarchive an assignment"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.SetAssignmentArchived(ctx, args[0], archived)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func assignmentReviewCmd() *cobra.Command {
	var status, comment string
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Approve or reject a finished assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.ReviewAssignment(ctx, args[0], status, comment, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "approved or rejected")
	cmd.Flags().StringVar(&comment, "comment", "", "review comment (max 1000 chars)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func assignmentRateCmd() *cobra.Command {
	var rating int
	var comment string
	cmd := &cobra.Command{
		Use:   "rate <id>",
		Short: "Rate a finished assignment (once)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.RateAssignment(ctx, args[0], rating, comment, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "rating 1-5")
	cmd.Flags().StringVar(&comment, "comment", "", "rating comment (max 1000 chars)")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func stepCmd() *cobra.Command {
	step := &cobra.Command{Use: "step", Short: "Work on assignment steps"}

	var assignmentID, stepID, userID, notes, evidenceURL, evidenceKind string
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Complete one step of an assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if userID == "" {
					userID = viper.GetString("actor-id")
				}
				p, err := e.CompleteStep(ctx, engine.CompleteStepOptions{
					AssignmentID: assignmentID,
					StepID:       stepID,
					UserID:       userID,
					Notes:        notes,
					EvidenceURL:  evidenceURL,
					EvidenceKind: evidenceKind,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	complete.Flags().StringVar(&assignmentID, "assignment", "", "assignment id")
	complete.Flags().StringVar(&stepID, "step", "", "task step id")
	complete.Flags().StringVar(&userID, "user", "", "participant user id (defaults to --actor-id)")
	complete.Flags().StringVar(&notes, "notes", "", "completion notes")
	complete.Flags().StringVar(&evidenceURL, "evidence-url", "", "evidence URL")
	complete.Flags().StringVar(&evidenceKind, "evidence-kind", "", "evidence kind")
	_ = complete.MarkFlagRequired("assignment")
	_ = complete.MarkFlagRequired("step")
	step.AddCommand(complete)

	return step
}

func notificationsCmd() *cobra.Command {
	notif := &cobra.Command{Use: "notifications", Short: "Manage notifications"}
	notif.AddCommand(notificationsListCmd())
	notif.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.MarkNotificationRead(ctx, args[0], time.Now().UTC().Format(time.RFC3339))
			})
		},
	})
	return notif
}

func notificationsListCmd() *cobra.Command {
	var userID string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if userID == "" {
					userID = viper.GetString("actor-id")
				}
				items, err := r.ListNotifications(ctx, userID, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "At"})
				for _, n := range items {
					tw.AppendRow(table.Row{n.ID, n.Type, n.Title, n.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to --actor-id)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max notifications")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one notification sweep (start, due-soon, overdue)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.SweepTick(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Hiveline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func newID() string {
	return uuid.New().String()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
