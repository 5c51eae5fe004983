// Package util provides the statistics helpers behind the database and
// cache reports.
//
// The package contains:
//   - Stats: count, extremes, mean and standard deviation of a series, used
//     for the min/avg/max fetch rates of the diskbase cache
//   - DistributionStats: the spread of a per-object quantity such as the
//     number of properties
//   - SizeHistogram: power-of-two buckets of property tree sizes with
//     median and percentile estimates
package util
