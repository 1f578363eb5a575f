package github

import (
	"context"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v45/github"
	"github.com/pkg/errors"
)

// Add supported types here with each GH api fxn introduced

func Iterate[T []*gh.User | []*gh.Team | *gh.ListRepositories, E any](
	ctx context.Context,
	runFunc func(ctx context.Context, nextPage int) (T, *gh.Response, error),
	processFunc func(T) []E) ([]E, error) {

	var output []E
	nextPage := 0
	for {
		results, resp, err := runFunc(ctx, nextPage)
		if err != nil {
			return nil, errors.Wrap(err, "error running gh api call")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("not ok status running gh api call: %s", resp.Status)
		}
		output = append(output, processFunc(results)...)
		if resp.NextPage == 0 {
			break
		}
		nextPage = resp.NextPage
	}
	return output, nil
}
