package streaming

// SelectLOD returns the index of the first level whose visible distance
// covers distance, or the last index when none does. The result never
// decreases as distance grows.
func SelectLOD(lods []LODLevel, distance float32) int {
	for i, lod := range lods {
		if distance <= lod.VisibleDistance {
			return i
		}
	}
	return len(lods) - 1
}
