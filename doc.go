// Package solr is a client for Solr-style full-text search servers.
//
// It supports querying, document add/update/delete with commit control,
// and parsing of both wire formats the server speaks: the tag-based
// structured format and JSON.
//
// A quick session:
//
//	client, err := solr.New("http://localhost:8983/solr")
//	if err != nil {
//		...
//	}
//	defer client.Close()
//
//	err = client.Add(ctx, solr.Document{"id": "500", "name": "test doc", "inStock": true}, solr.WithCommit())
//	resp, err := client.Query(ctx, "name:test", solr.WithRows(20))
//	for _, doc := range resp.Results {
//		fmt.Println(doc["id"], doc["score"])
//	}
//	next, err := resp.NextBatch(ctx)
//
// JSON replies lose type information. Handlers constructed with
// translators re-type values inside the decoded reply before assembly;
// see NewJSONResponseParser and package pathmap for the path pattern
// language.
package solr
