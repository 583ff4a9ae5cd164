package urls

import "fmt"

// Firmware release endpoints. ESP-Miner is the firmware that ships on Bitaxe
// boards; its web interface is AxeOS.

// LatestRelease is the GitHub API endpoint describing the newest firmware release.
const LatestRelease = "https://api.github.com/repos/skot/esp-miner/releases/latest"

// ReleaseDownloadBase is the prefix release assets are downloaded from.
// The full asset URL is ReleaseDownloadBase/<tag>/<filename>.
const ReleaseDownloadBase = "https://github.com/skot/ESP-Miner/releases/download"

// GitHubAPIVersion pins the REST API version requested from GitHub.
const GitHubAPIVersion = "2022-11-28"

// GitHubAccept is the media type GitHub recommends for REST calls.
const GitHubAccept = "application/vnd.github+json"

// ReleasePage returns the human-facing page for a release tag.
func ReleasePage(tag string) string {
	return fmt.Sprintf("https://github.com/skot/ESP-Miner/releases/tag/%s", tag)
}

// Documentation

// FlashingGuide explains how to recover a device through the web UI or a
// USB flash when an over-the-air upgrade fails.
const FlashingGuide = "https://github.com/skot/ESP-Miner/blob/master/flashing.md"

// AxeOSAPI documents the HTTP API of the device web server.
const AxeOSAPI = "https://github.com/skot/ESP-Miner/blob/master/main/http_server/openapi.yaml"
