// Package server exposes the correlation engine over HTTP.
//
// Routes are registered on a gin router group by RegisterRoutes:
//
//	GET    /health
//	POST   /analyze                      ad-hoc analysis of an inline response set
//	GET    /session/status               the dataset currently collecting, if any
//	POST   /survey                       submit to the open dataset (403 when none)
//	POST   /datasets                     create a dataset and open it
//	GET    /datasets                     list datasets, newest first
//	GET    /datasets/:id                 dataset metadata and response count
//	DELETE /datasets/:id                 delete a dataset
//	PUT    /datasets/:id/open            open a dataset, closing any other
//	PUT    /datasets/:id/close           stop collecting
//	POST   /datasets/:id/responses       submit one response (dataset must be open)
//	GET    /datasets/:id/responses       list responses with receive times
//	DELETE /datasets/:id/responses       clear responses
//	POST   /datasets/:id/testdata        append synthetic responses
//	GET    /datasets/:id/correlation     analyze a dataset
//
// At most one dataset is open at a time.
//
// Metrics are exported separately through MetricsHandler so the caller
// decides where /metrics lives.
package server
