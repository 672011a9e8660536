package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"proctorexam/internal/model"
	"proctorexam/internal/repository"
)

func checkDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-db",
		Short: "Print document counts and registered students",
		RunE:  runCheckDB,
	}
	storeFlags(cmd.Flags())
	return cmd
}

func runCheckDB(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDB)

	users := repository.NewUserRepo(db)
	exams := repository.NewExamRepo(db)
	results := repository.NewResultRepo(db)

	counts := make([]dbCount, 0, 4)
	for _, c := range []struct {
		label string
		count func(context.Context) (int64, error)
	}{
		{"Admins", func(ctx context.Context) (int64, error) { return users.Count(ctx, model.RoleAdmin) }},
		{"Students", func(ctx context.Context) (int64, error) { return users.Count(ctx, model.RoleStudent) }},
		{"Exams", exams.Count},
		{"Results", results.Count},
	} {
		n, err := c.count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", c.label, err)
		}
		counts = append(counts, dbCount{c.label, n})
	}

	students, err := users.ListByRole(ctx, model.RoleStudent)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}

	color.Cyan("\n=== Database %s ===", cfg.MongoDB)
	renderCounts(os.Stdout, counts)
	color.Yellow("\nStudents")
	renderStudents(os.Stdout, students)
	return nil
}

type dbCount struct {
	label string
	n     int64
}

func renderCounts(w io.Writer, counts []dbCount) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Collection", "Documents"})
	for _, c := range counts {
		table.Append([]string{c.label, strconv.FormatInt(c.n, 10)})
	}
	table.Render()
}

func renderStudents(w io.Writer, students []*model.User) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Email", "Blocked", "Registered"})
	for _, s := range students {
		blocked := "no"
		if s.IsBlocked {
			blocked = "yes"
		}
		table.Append([]string{
			s.ID,
			s.Name,
			s.Email,
			blocked,
			s.CreatedAt.Format("2006-01-02"),
		})
	}
	table.Render()
}
