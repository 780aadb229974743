package domain

// ArtifactKind — тип артефакта; передаётся координатору как file_type.
type ArtifactKind string

const (
	// ArtifactAlignment — объединённое выравнивание в Stockholm-подобном формате.
	ArtifactAlignment ArtifactKind = "alignment"

	// ArtifactPrediction — relaxed структура в формате PDB.
	ArtifactPrediction ArtifactKind = "prediction"

	// ArtifactMetrics — метрики уверенности (mean pLDDT, полосы).
	ArtifactMetrics ArtifactKind = "metrics"

	// ArtifactPAE — predicted aligned error (если модель его вернула).
	ArtifactPAE ArtifactKind = "pae"
)

// UploadItem — артефакт, подлежащий загрузке ровно один раз.
type UploadItem struct {
	Kind ArtifactKind `json:"kind"`
	Path string       `json:"path"`
}
