package ports

// StagingPort materializes a candidate manifest in a scratch project
// directory placed next to the original so relative path dependencies
// stay resolvable. The returned cleanup removes the directory.
type StagingPort interface {
	Stage(projectDir string, manifest []byte) (string, func(), error)
}
