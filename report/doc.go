// Package report records benchmark runs.
//
// Every exchange with a model is appended to a CSV file under
// <base>/csv/ and every model x scenario evaluation ends with a Markdown
// report under <base>/markdown/. Both are named
// <model>_scenario_<id>_<run timestamp>, with '/' and ':' in the model name
// replaced by '_'.
package report
