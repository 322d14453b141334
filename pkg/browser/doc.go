// Package browser drives a headless Chromium through Playwright and exposes
// its pages as tabs that the extract package can read.
//
// A TabManager owns one browser and one browser context. Every Open call
// adds a page to that context and makes it the active tab, mirroring how a
// side panel always reads the tab in front.
//
// # Lifecycle
//
//  1. Initialize installs the Playwright driver and Chromium if needed and
//     launches the browser
//  2. Open, Focus and Close manage tabs
//  3. Execute runs the read-only extraction script in a tab's page
//  4. Shutdown closes every page and stops Playwright
package browser
