package app

import (
	"fmt"
	"math"

	"gostatsplot/adapters/stats/runners"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
)

// MatchSubjects splits value by condition for a repeated-measures design.
// With a subject column, rows are matched by subject id and subjects that
// miss a condition are dropped. Without one, the i-th row of every
// condition forms the i-th subject and unequal counts are an error.
func MatchSubjects(t *dataset.Table, value, condition, subject string) ([]string, [][]float64, error) {
	if subject == "" {
		levels, groups, err := t.SplitBy(value, condition)
		if err != nil {
			return nil, nil, err
		}
		for i, g := range groups[1:] {
			if len(g) != len(groups[0]) {
				return nil, nil, fmt.Errorf("%w: condition %q has %d observations, %q has %d",
					core.ErrInsufficientData, levels[0], len(groups[0]), levels[i+1], len(g))
			}
		}
		return levels, groups, nil
	}

	ys, err := t.Numeric(value)
	if err != nil {
		return nil, nil, err
	}
	conds, err := t.Categorical(condition)
	if err != nil {
		return nil, nil, err
	}
	ids, err := t.Categorical(subject)
	if err != nil {
		return nil, nil, err
	}
	levels, err := t.Levels(condition)
	if err != nil {
		return nil, nil, err
	}
	subjects, err := t.Levels(subject)
	if err != nil {
		return nil, nil, err
	}

	pos := make(map[string]int, len(levels))
	for i, l := range levels {
		pos[l] = i
	}
	row := make(map[string]int, len(subjects))
	for i, s := range subjects {
		row[s] = i
	}
	cells := make([][]float64, len(subjects))
	for i := range cells {
		cells[i] = make([]float64, len(levels))
		for j := range cells[i] {
			cells[i][j] = math.NaN()
		}
	}
	for i, y := range ys {
		if math.IsNaN(y) || ids[i] == "" || conds[i] == "" {
			continue
		}
		r, c := row[ids[i]], pos[conds[i]]
		if !math.IsNaN(cells[r][c]) {
			return nil, nil, core.NewInvalidOptionError("subject",
				fmt.Sprintf("%q has more than one %q observation", ids[i], conds[i]))
		}
		cells[r][c] = y
	}

	groups := make([][]float64, len(levels))
	for _, subj := range cells {
		complete := true
		for _, v := range subj {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for j, v := range subj {
			groups[j] = append(groups[j], v)
		}
	}
	return levels, groups, nil
}

// Crosstab counts main by condition. Without a condition the table is
// one-way. A counts column weights each row instead of counting it once.
func Crosstab(t *dataset.Table, main, condition, counts string) (*runners.Crosstab, error) {
	rows, err := t.Categorical(main)
	if err != nil {
		return nil, err
	}
	rowLevels, err := t.Levels(main)
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(rows))
	colLevels := []string{""}
	if condition != "" {
		if cols, err = t.Categorical(condition); err != nil {
			return nil, err
		}
		if colLevels, err = t.Levels(condition); err != nil {
			return nil, err
		}
	}

	var weights []float64
	if counts != "" {
		if weights, err = t.Numeric(counts); err != nil {
			return nil, err
		}
	}

	ri := make(map[string]int, len(rowLevels))
	for i, l := range rowLevels {
		ri[l] = i
	}
	ci := make(map[string]int, len(colLevels))
	for i, l := range colLevels {
		ci[l] = i
	}
	tab := &runners.Crosstab{
		RowLevels: rowLevels,
		ColLevels: colLevels,
		Counts:    make([][]float64, len(rowLevels)),
	}
	for i := range tab.Counts {
		tab.Counts[i] = make([]float64, len(colLevels))
	}
	for i := range rows {
		if rows[i] == "" || (condition != "" && cols[i] == "") {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
			if w < 0 || math.IsInf(w, 0) {
				return nil, core.NewInvalidOptionError("counts", fmt.Sprintf("row %d holds %v", i+1, w))
			}
		}
		tab.Counts[ri[rows[i]]][ci[cols[i]]] += w
	}
	return tab, nil
}
