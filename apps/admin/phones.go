package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/batch"
	"github.com/trezcool/shule/core/reconcile"
	"github.com/trezcool/shule/storage/spreadsheet"
)

func (cli *commandLine) phones(path string, commit bool, rejectedPath string) error {
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := spreadsheet.ParsePhoneRows(f)
	if err != nil {
		return errors.Wrap(err, path)
	}

	var res reconcile.Result
	if commit {
		var report batch.Report
		if res, report, err = cli.reconcileSvc.Apply(ctx, rows); err != nil {
			return err
		}
		defer printReport(cli, report)
	} else if res, err = cli.reconcileSvc.Preview(ctx, rows); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d valid, %d invalid, %d not found, %d dropped\n",
		len(res.Valid), len(res.Invalid), len(res.NotFound), len(res.Dropped))
	for _, rec := range res.Rejected() {
		fmt.Fprintf(cli.out, "  line %d: %s: %s\n", rec.Line, rec.AdmissionNo, rec.Message)
	}

	if rejectedPath == "" {
		return nil
	}
	out, err := os.Create(rejectedPath)
	if err != nil {
		return err
	}
	if err = spreadsheet.WriteRejected(out, res.Rejected()); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
