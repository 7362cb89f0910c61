package gui

import (
	. "modernc.org/tk9.0"
)

type appWidgets struct {
	repoLabel    *TLabelWidget
	jumpEntry    *TEntryWidget
	jumpButton   *TButtonWidget
	reloadButton *TButtonWidget
	treeView     *TTreeviewWidget
	status       *TLabelWidget
}
