package commission

// Counts holds the rating tally of one employee for one period, level 5 (excellent) to 1 (critical).
type Counts struct {
	Count5 int `json:"count5"`
	Count4 int `json:"count4"`
	Count3 int `json:"count3"`
	Count2 int `json:"count2"`
	Count1 int `json:"count1"`
}

func (c Counts) Validate() error {
	verr := &ValidationError{}
	for _, field := range []struct {
		name  string
		value int
	}{
		{"count5", c.Count5},
		{"count4", c.Count4},
		{"count3", c.Count3},
		{"count2", c.Count2},
		{"count1", c.Count1},
	} {
		if field.value < 0 {
			verr.add(field.name, "must not be negative")
		}
	}
	return verr.orNil()
}

type Score struct {
	Volume           int `json:"volume"`
	WeightedScore    int `json:"weightedScore"`
	MaxPossibleScore int `json:"maxPossibleScore"`
	Percentage       int `json:"percentage"`
}

// Aggregate derives the performance figures of a tally. Every read and write
// path goes through here.
func Aggregate(c Counts) Score {
	volume := c.Count5 + c.Count4 + c.Count3 + c.Count2 + c.Count1
	weighted := 5*c.Count5 + 4*c.Count4 + 3*c.Count3 + 2*c.Count2 + c.Count1
	maxScore := volume * 5
	return Score{
		Volume:           volume,
		WeightedScore:    weighted,
		MaxPossibleScore: maxScore,
		Percentage:       percentage(weighted, maxScore),
	}
}

// percentage rounds weighted/max*100 half up using integer arithmetic only.
func percentage(weighted, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return (200*weighted + maxScore) / (2 * maxScore)
}
