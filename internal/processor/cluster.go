package processor

import (
	"math"

	"barberhub/internal/models"
)

// clusterDistance is the maximum euclidean feature distance for two
// alerts to share a cluster.
const clusterDistance = 0.35

// minClusterSize is the smallest group worth reporting as a pattern.
const minClusterSize = 3

type cluster struct {
	alerts   []*models.Alert
	centroid models.FloatMap
}

// clusterByFeatures greedily groups alerts by feature-vector proximity:
// each alert joins the first cluster whose centroid is within
// clusterDistance, else starts its own. Good enough to surface emerging
// patterns without a real clustering dependency.
func clusterByFeatures(alerts []*models.Alert) []*cluster {
	var clusters []*cluster
	for _, alert := range alerts {
		if len(alert.MLFeatures) == 0 {
			continue
		}
		placed := false
		for _, c := range clusters {
			if featureDistance(c.centroid, alert.MLFeatures) <= clusterDistance {
				c.alerts = append(c.alerts, alert)
				c.centroid = recenter(c)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{
				alerts:   []*models.Alert{alert},
				centroid: copyFeatures(alert.MLFeatures),
			})
		}
	}
	return clusters
}

func featureDistance(a, b models.FloatMap) float64 {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	var sum float64
	for k := range keys {
		d := a[k] - b[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func recenter(c *cluster) models.FloatMap {
	centroid := models.FloatMap{}
	for _, alert := range c.alerts {
		for k, v := range alert.MLFeatures {
			centroid[k] += v
		}
	}
	n := float64(len(c.alerts))
	for k := range centroid {
		centroid[k] /= n
	}
	return centroid
}

func copyFeatures(feats models.FloatMap) models.FloatMap {
	out := make(models.FloatMap, len(feats))
	for k, v := range feats {
		out[k] = v
	}
	return out
}
