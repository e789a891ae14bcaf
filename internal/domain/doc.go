// Package domain models flood-risk readings and the ensemble decision made
// from two pretrained classifiers.
//
// # Readings
//
// A reading is the set of observations submitted through the prediction
// form for one urban area:
//
//	rainfall            mm over the reporting window
//	temperature         degrees Celsius
//	humidity            relative humidity, percent
//	river_discharge     m³/s at the nearest gauge
//	water_level         m above gauge datum
//	elevation           m above sea level
//	land_cover          Forest, Urban, Agriculture, Water, Barren
//	soil_type           Clay, Sandy, Loamy, Silty, Peaty, Chalky
//	population_density  people per km²
//	historical_floods   count of recorded floods (integer)
//
// # Feature Order
//
// Readings are encoded into a FeatureVector whose order matches the column
// order the models were trained on. Reordering FeatureNames silently breaks
// every model artifact, so the order is fixed here and nowhere else.
//
// Category strings are matched exactly (case-sensitive). Strings outside the
// tables encode as UnknownCategory (-1), a value neither model saw during
// training.
//
// # Ensemble Decision
//
// The tabular and sequence probabilities are averaged and the mean is
// compared against two strict thresholds:
//
//	mean > 0.5          High      confidence = mean
//	0.4 < mean <= 0.5   Moderate  confidence = mean
//	mean <= 0.4         Safe      confidence = 1 - mean
package domain
