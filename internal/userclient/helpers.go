package userclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"b2g-quiz/internal/offline"
	"b2g-quiz/internal/quiz"
)

// promptAnswer reads one option letter and returns its zero-based index.
func promptAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool) {
	if optionCount < 1 {
		return 0, false
	}

	maxLetter := byte('A' + optionCount - 1)
	fmt.Fprintf(out, "Your answer (A-%c): ", maxLetter)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, false
	}

	answer := strings.ToUpper(strings.TrimSpace(line))
	if len(answer) != 1 {
		return 0, false
	}
	letter := answer[0]
	if letter < 'A' || letter > maxLetter {
		return 0, false
	}

	return int(letter - 'A'), true
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  status")
	fmt.Fprintln(out, "  quizzes [category]")
	fmt.Fprintln(out, "  play <quiz_id>")
	fmt.Fprintln(out, "  plan <plan_id>")
	fmt.Fprintln(out, "  plans")
	fmt.Fprintln(out, "  progress <plan_id> <week>")
	fmt.Fprintln(out, "  pending")
	fmt.Fprintln(out, "  sync")
	fmt.Fprintln(out, "  results [limit]")
	fmt.Fprintln(out, "  online | offline")
	fmt.Fprintln(out, "  purge [days]")
	fmt.Fprintln(out, "  exit")
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func describeClientError(err error, serverURL string) error {
	var storageErr *offline.StorageError
	switch {
	case errors.As(err, &storageErr):
		return fmt.Errorf("local storage failed, nothing was saved: %v", storageErr)
	case errors.Is(err, offline.ErrAuthExpired):
		return errors.New("session expired; set a fresh QUIZ_TOKEN and restart")
	case errors.Is(err, offline.ErrContentUnavailable):
		return fmt.Errorf("%v; connect once to download it", err)
	case errors.Is(err, offline.ErrOffline):
		return errors.New("offline; attempts will sync when the connection returns")
	case errors.Is(err, ErrServiceUnavailable):
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	return err
}

func printGraded(out io.Writer, result quiz.GradedResult) {
	fmt.Fprintf(out, "\nScore: %d/%d (%d%%)\n", result.Score, result.Total, result.Percentage)
	for idx, answer := range result.Answers {
		mark := "wrong"
		if answer.IsCorrect {
			mark = "correct"
		}
		if answer.Correct == "" {
			fmt.Fprintf(out, "  Q%d %s\n", idx+1, mark)
			continue
		}
		fmt.Fprintf(out, "  Q%d %s, answer: %s\n", idx+1, mark, answer.Correct)
	}
}

func printResults(out io.Writer, results []quiz.GradedResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No graded results yet.")
		return
	}
	for idx, result := range results {
		fmt.Fprintf(out, "%d. %s %d/%d (%d%%) %s\n",
			idx+1,
			result.QuizID,
			result.Score,
			result.Total,
			result.Percentage,
			result.CompletedAt.Format("2006-01-02 15:04"),
		)
	}
}

func answeredCount(answers []quiz.Answer) int {
	count := 0
	for _, answer := range answers {
		if answer.Selected != nil {
			count++
		}
	}
	return count
}

func displayUser(userID string) string {
	if userID == "" {
		return "(unknown)"
	}
	return userID
}
