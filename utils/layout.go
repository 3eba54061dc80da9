package utils

import "fmt"

// Node numbers start at 1 and are the node's position in the network config.

func KeyDirName(nodeNumber int) string {
	return fmt.Sprintf("key%d", nodeNumber)
}

func QuorumDirName(nodeNumber int) string {
	return fmt.Sprintf("dd%d", nodeNumber)
}

func TMDirName(nodeNumber int) string {
	return fmt.Sprintf("c%d", nodeNumber)
}

func TesseraConfigFileName(nodeNumber int) string {
	return fmt.Sprintf("tessera-config-09-%d.json", nodeNumber)
}

func ConfigSnapshotFileName(networkName string) string {
	return networkName + "-config.json"
}
