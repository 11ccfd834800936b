// Package model defines the data passed between the fetch, detection and
// analysis stages: the fetched PageContent, the model's AnalysisResult and
// the Answer returned to callers and stored in history.
package model
