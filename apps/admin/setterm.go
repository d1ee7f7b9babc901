package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/school"
)

func (cli *commandLine) setTerm(year, number int) error {
	t, err := cli.schoolSvc.SetActiveTerm(context.Background(), school.SetTerm{Year: year, Number: number})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "active term: %d term %d (%s)\n", t.Year, t.Number, t.ID)
	return nil
}
