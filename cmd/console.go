package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/interview"
	"github.com/spigell/interview-agent/internal/logger"
)

var exitWords = []string{"exit", "quit", "stop"}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runConsole(cmd)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().StringP("role", "r", "", "role to interview for (default is interview.default-role)")
	consoleCmd.Flags().IntP("max-questions", "n", 0, "number of main questions (default is interview.default-max-questions)")
}

// answerReader reads one candidate answer.
type answerReader func() (string, error)

func promptReader() answerReader {
	return func() (string, error) {
		prompt := promptui.Prompt{Label: "You"}
		return prompt.Run()
	}
}

func runConsole(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// console sessions are never persisted
	config.Storage.Backend = storageMemory

	application, err := newApplication(cmd.Context(), config, logger)
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer application.Close()

	role, _ := cmd.Flags().GetString("role")
	maxQuestions, _ := cmd.Flags().GetInt("max-questions")

	if err := interviewLoop(cmd.Context(), application.service, role, maxQuestions, promptReader(), cmd.OutOrStdout()); err != nil {
		logger.Fatal("interview failed", zap.Error(err))
	}
}

// interviewLoop runs one interview until it finishes or the candidate asks to
// stop, then prints the feedback of a finished interview.
func interviewLoop(ctx context.Context, svc *interview.Service, role string, maxQuestions int, read answerReader, out io.Writer) error {
	session, err := svc.Start(ctx, role, maxQuestions)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nStarting mock interview for role: %s\n(Type 'exit' anytime to stop)\n\n", session.Role)
	fmt.Fprintf(out, "Interviewer: %s\n\n", session.CurrentQuestion)

	for {
		answer, err := read()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
			fmt.Fprintln(out, "\nEnding interview early as requested.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading answer: %w", err)
		}

		if isExitWord(answer) {
			fmt.Fprintln(out, "\nEnding interview early as requested.")
			return nil
		}

		reply, err := svc.Answer(ctx, session.ID, answer)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nInterviewer: %s\n\n", reply.Message)

		if reply.Finished {
			break
		}
	}

	fmt.Fprintln(out, "Generating feedback...")
	report, err := svc.Feedback(ctx, session.ID)
	if err != nil {
		return err
	}

	printFeedback(out, report)
	return nil
}

func isExitWord(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, word := range exitWords {
		if answer == word {
			return true
		}
	}
	return false
}

func printFeedback(out io.Writer, f *interview.Feedback) {
	fmt.Fprintf(out, "\nFEEDBACK\n\n%s\n", f.Summary)

	sections := []struct {
		title string
		items []string
	}{
		{"Strengths", f.Strengths},
		{"Areas to improve", f.Improvements},
		{"Practice tips", f.Tips},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n", s.title)
		for _, item := range s.items {
			fmt.Fprintf(out, "- %s\n", item)
		}
	}

	fmt.Fprintf(out, "\nScores (0-10):\n- Communication: %d/10\n- Technical: %d/10\n- Confidence: %d/10\n",
		f.Scores.Communication, f.Scores.Technical, f.Scores.Confidence)
}
