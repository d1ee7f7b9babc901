package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/reconcile"
	"github.com/trezcool/shule/core/school"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) } // mockable
	confirmFunc    = confirm                                                     // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	db           *sql.DB
	out          io.Writer
	schoolSvc    *school.Service
	promotionSvc *promotion.Service
	reconcileSvc *reconcile.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                          - run a goose migration command (up, down, status, ...)")
	fmt.Println("  setterm -year YEAR -term 1|2|3                  - set the active term, creating it when needed")
	fmt.Println("  promote -class NAME [-yes]                      - promote (or graduate) the active learners of a class")
	fmt.Println("  phones -file IN.xlsx [-commit] [-rejected OUT]  - reconcile a guardian phones workbook")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	setTermCmd := flag.NewFlagSet("setterm", flag.ContinueOnError)
	setTermYear := setTermCmd.Int("year", 0, "The calendar year of the term.")
	setTermNumber := setTermCmd.Int("term", 0, "The term number: 1, 2 or 3.")

	promoteCmd := flag.NewFlagSet("promote", flag.ContinueOnError)
	promoteClass := promoteCmd.String("class", "", "The name of the class to promote.")
	promoteYes := promoteCmd.Bool("yes", false, "Skip the confirmation prompt.")

	phonesCmd := flag.NewFlagSet("phones", flag.ContinueOnError)
	phonesFile := phonesCmd.String("file", "", "The xlsx workbook to reconcile.")
	phonesCommit := phonesCmd.Bool("commit", false, "Write the valid phones to the learners.")
	phonesRejected := phonesCmd.String("rejected", "", "Write the rejected rows to this xlsx workbook.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "setterm":
		if err := setTermCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setTermYear == 0 || *setTermNumber == 0 {
			setTermCmd.Usage()
			return errHelp
		}
		return cli.setTerm(*setTermYear, *setTermNumber)

	case "promote":
		if err := promoteCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *promoteClass == "" {
			promoteCmd.Usage()
			return errHelp
		}
		return cli.promote(*promoteClass, *promoteYes)

	case "phones":
		if err := phonesCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *phonesFile == "" {
			phonesCmd.Usage()
			return errHelp
		}
		return cli.phones(*phonesFile, *phonesCommit, *phonesRejected)

	default:
		cli.printUsage()
		return errHelp
	}
}
