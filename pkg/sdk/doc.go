// Package fedsearch embeds federated search in a Go program: one query fans
// out to several independent stores under a single deadline, and a store
// that fails only shows up as a failed entry in the performance report.
//
//	client, _ := fedsearch.New(ctx,
//	    fedsearch.WithSQLite("primary", "./data/primary.db"),
//	    fedsearch.WithBadgerInMemory("local"),
//	    fedsearch.WithRedis("cache", []string{"localhost:6379"}, "", fedsearch.ModeKeyword),
//	)
//	defer client.Close()
//
//	_, _ = client.Index(ctx, []fedsearch.Document{{ID: "go-1", Content: "golang concurrency"}})
//	res, err := client.Search(ctx, "golang", 500*time.Millisecond)
//	if errors.Is(err, fedsearch.ErrTimeout) {
//	    // no partial rows on timeout
//	}
//	for _, id := range res.Performance.Failed() {
//	    log.Printf("store %s failed: %s", id, res.Performance.Stores[id].Error)
//	}
package fedsearch
