package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/batch"
)

// confirm asks a yes/no question on stdin; anything but y/yes is a no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (cli *commandLine) promote(className string, yes bool) error {
	ctx := context.Background()

	classes, err := cli.schoolSvc.Classes(ctx)
	if err != nil {
		return err
	}
	classID := ""
	for _, c := range classes {
		if strings.EqualFold(c.Name, strings.TrimSpace(className)) {
			classID = c.ID
			break
		}
	}
	if classID == "" {
		return core.NewNotFoundError("class", className)
	}

	plans, err := cli.promotionSvc.Preview(ctx, classID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintf(cli.out, "%s has no active learners\n", className)
		return nil
	}
	for _, p := range plans {
		if p.Resolved() {
			fmt.Fprintf(cli.out, "  %-16s %-24s %-9s %s\n", p.AdmissionNo, p.Name, p.Action, p.TargetClass)
		} else {
			fmt.Fprintf(cli.out, "  %-16s %-24s error: %v\n", p.AdmissionNo, p.Name, p.Err)
		}
	}

	if !yes {
		if !isTerminalFunc() {
			return errors.New("not a terminal: pass -yes to promote without confirmation")
		}
		if !confirmFunc(fmt.Sprintf("Promote %d learner(s) of %s?", len(plans), className)) {
			return errAborted
		}
	}

	report, err := cli.promotionSvc.Apply(ctx, classID, plans)
	if err != nil {
		return err
	}
	printReport(cli, report)
	return nil
}

func printReport(cli *commandLine, report batch.Report) {
	fmt.Fprintf(cli.out, "done: %d succeeded, %d failed\n", report.SuccessCount, report.FailCount)
	for _, f := range report.Failures {
		fmt.Fprintf(cli.out, "  %s: %s\n", f.Key, f.Message)
	}
}
