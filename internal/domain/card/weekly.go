package card

import "sort"

// WeeklyCount is one (year, week) bucket as grouped by storage.
type WeeklyCount struct {
	Year       int `json:"year"`
	Week       int `json:"week"`
	Issued     int `json:"issued"`
	Eradicated int `json:"eradicated"`
}

// WeeklyPoint adds running totals to a bucket.
type WeeklyPoint struct {
	WeeklyCount
	CumulativeIssued     int `json:"cumulativeIssued"`
	CumulativeEradicated int `json:"cumulativeEradicated"`
}

// Accumulate orders buckets by (year, week), merges duplicates, and computes
// the running totals in a single sequential pass.
func Accumulate(rows []WeeklyCount) []WeeklyPoint {
	if len(rows) == 0 {
		return []WeeklyPoint{}
	}

	type key struct{ year, week int }
	merged := make(map[key]WeeklyCount, len(rows))
	for _, row := range rows {
		k := key{row.Year, row.Week}
		acc := merged[k]
		acc.Year, acc.Week = row.Year, row.Week
		acc.Issued += row.Issued
		acc.Eradicated += row.Eradicated
		merged[k] = acc
	}

	ordered := make([]WeeklyCount, 0, len(merged))
	for _, row := range merged {
		ordered = append(ordered, row)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Year != ordered[j].Year {
			return ordered[i].Year < ordered[j].Year
		}
		return ordered[i].Week < ordered[j].Week
	})

	points := make([]WeeklyPoint, len(ordered))
	issued, eradicated := 0, 0
	for i, row := range ordered {
		issued += row.Issued
		eradicated += row.Eradicated
		points[i] = WeeklyPoint{
			WeeklyCount:          row,
			CumulativeIssued:     issued,
			CumulativeEradicated: eradicated,
		}
	}
	return points
}
