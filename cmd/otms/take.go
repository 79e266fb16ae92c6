package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/otms/internal/client"
	"github.com/pavelanni/otms/internal/model"
	"github.com/pavelanni/otms/internal/session"
)

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take an assigned test in the terminal",
		RunE:  runTake,
	}
	f := cmd.Flags()
	f.String("server", "http://localhost:8080", "Base URL of the otms server")
	f.StringP("username", "u", "", "Student username (required)")
	f.StringP("password", "p", "", "Student password (or set OTMS_PASSWORD)")
	f.Int64("test-id", 0, "Test to take (0 lists available tests)")
	addLogFlags(cmd)
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	c := client.New(v.GetString("server"), &http.Client{Timeout: 30 * time.Second})
	user, err := c.Login(ctx, v.GetString("username"), v.GetString("password"))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := c.Logout(context.Background()); err != nil {
			slog.Debug("logout", "error", err)
		}
	}()
	fmt.Fprintf(out, "Logged in as %s\n", user.DisplayName())

	testID := v.GetInt64("test-id")
	if testID == 0 {
		tests, err := c.AvailableTests(ctx)
		if err != nil {
			return fmt.Errorf("list available tests: %w", err)
		}
		if len(tests) == 0 {
			fmt.Fprintln(out, "No tests available.")
			return nil
		}
		for _, t := range tests {
			fmt.Fprintf(out, "%6d  %s (%d questions, %s)\n", t.ID, t.Name, len(t.Questions), formatLimit(t.Time))
		}
		fmt.Fprintln(out, "Run again with --test-id to start one.")
		return nil
	}

	view, err := c.StartTest(ctx, testID)
	if err != nil {
		return fmt.Errorf("load test: %w", err)
	}
	sess := session.New()
	if err := sess.Start(view, time.Now()); err != nil {
		return err
	}

	if err := runQuiz(ctx, sess, c, cmd.InOrStdin(), out); err != nil {
		return err
	}

	res, err := c.Result(ctx, testID)
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}
	fmt.Fprintf(out, "\nScore: %d/%d (%d%%)\n", res.TotalScore, res.TestTotalScore, res.Percentage)
	return nil
}

// runQuiz prompts for every question, then submits. A timed session is
// submitted with whatever was answered when the countdown reaches zero.
func runQuiz(ctx context.Context, sess *session.Session, sub session.Submitter, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	var expired <-chan time.Time
	if sess.Timed() {
		timer := time.NewTimer(sess.Remaining(time.Now()))
		defer timer.Stop()
		expired = timer.C
	}

	test := sess.Test()
	fmt.Fprintf(out, "\n%s\n%s\nTime limit: %s\n", test.Name, test.Description, formatLimit(test.Time))

questions:
	for i, q := range test.Questions {
		printQuestion(out, i+1, q, sess.Remaining(time.Now()), sess.Timed())
		for {
			select {
			case <-expired:
				fmt.Fprintln(out, "\nTime is up, submitting your answers.")
				return submitWithRetry(ctx, sess, sub, nil, out)
			case line, ok := <-lines:
				if !ok {
					break questions
				}
				values, err := parseChoices(line, q.Options)
				if err != nil {
					fmt.Fprintf(out, "%v, try again: ", err)
					continue
				}
				if err := sess.Answer(q.ID, values...); err != nil {
					return err
				}
				continue questions
			}
		}
	}
	return submitWithRetry(ctx, sess, sub, lines, out)
}

// submitWithRetry keeps the answers after a failed submit and asks before
// retrying. Without input it retries a few times on its own.
func submitWithRetry(ctx context.Context, sess *session.Session, sub session.Submitter, lines <-chan string, out io.Writer) error {
	const autoRetries = 3
	for attempt := 1; ; attempt++ {
		err := sess.Submit(ctx, sub)
		if err == nil {
			fmt.Fprintln(out, "Test submitted.")
			return nil
		}
		fmt.Fprintf(out, "Submit failed: %v\n", err)
		if lines == nil {
			if attempt >= autoRetries {
				return fmt.Errorf("submit: %w", err)
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		fmt.Fprint(out, "Press Enter to retry, or type q to quit: ")
		line, ok := <-lines
		if !ok || strings.EqualFold(strings.TrimSpace(line), "q") {
			return fmt.Errorf("submit: %w", err)
		}
	}
}

func printQuestion(out io.Writer, n int, q model.QuestionView, remaining time.Duration, timed bool) {
	fmt.Fprintf(out, "\n%d. %s (%d pts", n, q.Question, q.Score)
	if q.QuestionType == "multiple" {
		fmt.Fprint(out, ", choose all that apply")
	}
	if timed {
		fmt.Fprintf(out, ", %s left", remaining.Round(time.Second))
	}
	fmt.Fprintln(out, ")")
	for i, opt := range q.Options {
		fmt.Fprintf(out, "   %d) %s\n", i+1, opt)
	}
	fmt.Fprint(out, "Answer (numbers separated by commas, empty to skip): ")
}

// parseChoices turns "1, 3" into the matching option texts.
func parseChoices(line string, options []string) ([]string, error) {
	var values []string
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(options) {
			return nil, fmt.Errorf("%q is not an option number", field)
		}
		values = append(values, options[n-1])
	}
	return values, nil
}

func formatLimit(seconds int) string {
	if seconds <= 0 {
		return "untimed"
	}
	return (time.Duration(seconds) * time.Second).String()
}

