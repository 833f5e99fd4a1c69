package corelgo_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/corelgo"
	"github.com/hupe1980/corelgo/dataset"
)

func exampleDataset() *dataset.Dataset {
	rules, err := dataset.ParseRecords(strings.NewReader(
		"{r0} 1 1 0 1 0 0\n{r1} 0 0 1 0 1 1\n{r2} 0 1 0 0 1 0\n"), "example.out")
	if err != nil {
		log.Fatal(err)
	}
	labels, err := dataset.ParseRecords(strings.NewReader(
		"{label=0} 0 0 1 0 1 1\n{label=1} 1 1 0 1 0 0\n"), "example.label")
	if err != nil {
		log.Fatal(err)
	}
	ds, err := dataset.FromRecords(rules, labels, nil)
	if err != nil {
		log.Fatal(err)
	}
	return ds
}

// ExampleLearn learns the optimal list for a tiny dataset.
func ExampleLearn() {
	res, err := corelgo.Learn(context.Background(), exampleDataset(),
		corelgo.WithRegularization(0.05),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res)
	fmt.Println("optimal:", res.Optimal)
	// Output:
	// if (r0) then (1)
	// else (0)
	// optimal: true
}

// ExampleBuilder configures a search with the fluent builder.
func ExampleBuilder() {
	res, err := corelgo.New(exampleDataset()).
		BFS().
		Regularization(0.6). // each rule costs more than the errors it fixes
		MaxNodes(1000).
		Learn(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res)
	fmt.Printf("objective: %.2f\n", res.Objective)
	// Output:
	// else (1)
	// objective: 0.50
}
