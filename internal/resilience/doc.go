// Package resilience groups the fault tolerance helpers used by the outbound
// pipelines: circuit breakers around the digest host and each feed host, and
// retry with exponential backoff for transient network failures.
//
//	cb := circuitbreaker.New(circuitbreaker.DigestDownloadConfig())
//	err := retry.WithBackoff(ctx, retry.DigestDownloadConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) { return download(ctx) })
//	    return err
//	})
package resilience
