// Package cli is the operator console for the quiz catalogue. It works on the
// server database directly and never grades attempts.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"b2g-quiz/internal/quiz"
)

const defaultImportAmount = 10

type Catalogue interface {
	ListQuizzes(ctx context.Context, filter quiz.Filter) ([]quiz.Summary, error)
	GetQuiz(ctx context.Context, quizID string) (quiz.PublicQuiz, error)
	SeedDefaults(ctx context.Context) (int, error)
	ImportQuiz(ctx context.Context, fetcher quiz.QuestionsFetcher, title string, amount int) (quiz.Definition, error)
}

func Run(ctx context.Context, in io.Reader, out io.Writer, catalogue Catalogue, fetcher quiz.QuestionsFetcher) error {
	reader := bufio.NewReader(in)
	printHelp(out)

	for {
		fmt.Fprint(out, "\nadmin> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		var cmdErr error
		switch strings.ToLower(args[0]) {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "list":
			cmdErr = listQuizzes(ctx, out, catalogue, strings.Join(args[1:], " "))
		case "show":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: show <quiz_id>")
				continue
			}
			cmdErr = showQuiz(ctx, out, catalogue, args[1])
		case "seed":
			seeded, err := catalogue.SeedDefaults(ctx)
			if err == nil {
				fmt.Fprintf(out, "Seeded %d quiz(zes).\n", seeded)
			}
			cmdErr = err
		case "import":
			cmdErr = importQuiz(ctx, out, catalogue, fetcher, args[1:])
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
		if cmdErr != nil {
			fmt.Fprintf(out, "error: %v\n", cmdErr)
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  list [category]")
	fmt.Fprintln(out, "  show <quiz_id>")
	fmt.Fprintln(out, "  seed")
	fmt.Fprintln(out, "  import [amount] [title]")
	fmt.Fprintln(out, "  exit")
}

func listQuizzes(ctx context.Context, out io.Writer, catalogue Catalogue, category string) error {
	summaries, err := catalogue.ListQuizzes(ctx, quiz.Filter{Category: category})
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "Catalogue is empty.")
		return nil
	}
	for _, summary := range summaries {
		fmt.Fprintf(out, "%s  %-28s %-12s %-9s %d questions\n",
			summary.QuizID,
			summary.Title,
			summary.SkillCategory,
			summary.Difficulty,
			summary.QuestionCount,
		)
	}
	return nil
}

func showQuiz(ctx context.Context, out io.Writer, catalogue Catalogue, quizID string) error {
	detail, err := catalogue.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s [%s, %s]\n", detail.QuizID, detail.Title, detail.SkillCategory, detail.Difficulty)
	for idx, question := range detail.Questions {
		fmt.Fprintf(out, "\nQ%d (%s): %s\n", idx+1, question.QuestionID, question.Question)
		for optionIdx, option := range question.Options {
			fmt.Fprintf(out, "  %c. %s\n", 'A'+optionIdx, option)
		}
	}
	return nil
}

func importQuiz(ctx context.Context, out io.Writer, catalogue Catalogue, fetcher quiz.QuestionsFetcher, args []string) error {
	amount := defaultImportAmount
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil {
			if parsed <= 0 {
				return errors.New("amount must be a positive integer")
			}
			amount = parsed
			args = args[1:]
		}
	}
	title := strings.Join(args, " ")
	if title == "" {
		title = "General Knowledge"
	}

	definition, err := catalogue.ImportQuiz(ctx, fetcher, title, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Published %s with %d question(s).\n", definition.QuizID, len(definition.Questions))
	return nil
}
