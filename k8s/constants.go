package k8s

const (
	resourceLimitsCPU     = "1"
	resourceLimitsMemory  = "2Gi"
	resourceRequestCPU    = "250m"
	resourceRequestMemory = "512Mi"

	envVarPrefix = "QUORUM_"

	defaultQuorumImage  = "quorumengineering/quorum"
	defaultTesseraImage = "quorumengineering/tessera"

	configMountPath = "/etc/quorum/config"
	keysMountPath   = "/etc/quorum/keys"
	tmMountPath     = "/etc/quorum/tm"
)
