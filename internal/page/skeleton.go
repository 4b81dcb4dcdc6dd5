package page

// Element ids the reconcilers address.
const (
	GameContainerID  = "gameContainer"
	GameListID       = "game-list"
	PlayerListID     = "player-list"
	PresetSelectorID = "preset-selector"
	GamePresetID     = "game-preset-selector"
	GameSelectorID   = "game-selector"
	CSSStyleSelectID = "css_style"
	CSSBodyInputID   = "css-body"
	CSSCardInputID   = "css-card"
	ImportButtonID   = "import-data-btn"
	ExportButtonID   = "export-data-btn"
	ImportStatusID   = "import-status"
	LoadingModalID   = "global-loading-modal"
	LoadingStatusID  = "modal-loading-status"
	ProgressBarID    = "progress-bar"
	ModalCloseID     = "modal-close-button"
	ScoreboardListID = "scoreboard-list"
	HamburgerMenuID  = "hamburgerMenu"
	ImagePreviewID   = "image-preview"
	TooltipID        = "tooltip"
)

// Skeleton is the room page before any data arrives.
const Skeleton = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Scoreboard</title></head>
<body>
<nav id="hamburgerMenu" class="hamburger-menu">
<select id="preset-selector"></select>
<select id="game-selector"></select>
<select id="game-preset-selector"></select>
<ul id="game-list" class="game-list"></ul>
<ul id="player-list" class="player-list"></ul>
<textarea id="css-body"></textarea>
<textarea id="css-card"></textarea>
<select id="css_style"></select>
<img id="image-preview" alt="" style="display: none;">
<button id="import-data-btn">Import</button>
<button id="export-data-btn">Export</button>
<p id="import-status" class="hidden"></p>
</nav>
<div id="gameContainer" class="game-container"></div>
<div id="scoreboard-list" class="scoreboard-list"></div>
<div id="global-loading-modal" class="modal hidden">
<p id="modal-loading-status"></p>
<div class="progress"><div id="progress-bar" style="width: 0%;"></div></div>
<button id="modal-close-button" style="display: none;">Close</button>
</div>
<div id="tooltip" class="tooltip" style="display: none;"></div>
</body>
</html>`
