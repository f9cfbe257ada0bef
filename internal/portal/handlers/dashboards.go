package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"docbridge/internal/models"
)

// Dashboards proxy the file API with the session's bearer token. The portal
// holds no file state of its own; an empty or failed listing degrades to an
// inline message on the page.

func (p *Pages) OpsDashboard(c *gin.Context) {
	state := Machine(c).State()

	files, err := p.gateway.ListFiles(c.Request.Context(), state.Token)
	data := gin.H{
		"User":  state.User,
		"Files": files,
		"Msg":   c.Query("msg"),
		"Error": c.Query("error"),
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("file listing unavailable")
		data["Error"] = "file listing is currently unavailable"
	}

	c.HTML(http.StatusOK, "ops_dashboard.html", data)
}

func (p *Pages) OpsUpload(c *gin.Context) {
	state := Machine(c).State()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.Redirect(http.StatusFound, "/ops-dashboard?error="+url.QueryEscape("choose a file to upload"))
		return
	}
	defer file.Close()

	if _, ok := models.DetectFileType(header.Filename); !ok {
		c.Redirect(http.StatusFound, "/ops-dashboard?error="+url.QueryEscape("only pptx, docx and xlsx files are accepted"))
		return
	}

	if err := p.gateway.Upload(c.Request.Context(), state.Token, header.Filename, file); err != nil {
		p.log.Warn().Err(err).Str("filename", header.Filename).Msg("upload failed")
		c.Redirect(http.StatusFound, "/ops-dashboard?error="+url.QueryEscape(loginErrorMessage(err)))
		return
	}

	c.Redirect(http.StatusFound, "/ops-dashboard?msg="+url.QueryEscape(header.Filename+" uploaded"))
}

func (p *Pages) ClientDashboard(c *gin.Context) {
	state := Machine(c).State()

	files, err := p.gateway.ListFiles(c.Request.Context(), state.Token)
	data := gin.H{
		"User":  state.User,
		"Files": files,
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("file listing unavailable")
		data["Error"] = "file listing is currently unavailable"
	}

	c.HTML(http.StatusOK, "client_dashboard.html", data)
}

func (p *Pages) ClientDownloadLink(c *gin.Context) {
	state := Machine(c).State()
	fileID := c.Param("id")

	link, err := p.gateway.IssueDownloadLink(c.Request.Context(), state.Token, fileID)

	files, listErr := p.gateway.ListFiles(c.Request.Context(), state.Token)
	data := gin.H{
		"User":  state.User,
		"Files": files,
	}
	if listErr != nil {
		data["Error"] = "file listing is currently unavailable"
	}

	if err != nil {
		p.log.Warn().Err(err).Str("file_id", fileID).Msg("download link request failed")
		data["Error"] = loginErrorMessage(err)
	} else {
		data["DownloadLink"] = link
	}

	c.HTML(http.StatusOK, "client_dashboard.html", data)
}

func (p *Pages) ClientHistory(c *gin.Context) {
	state := Machine(c).State()

	history, err := p.gateway.DownloadHistory(c.Request.Context(), state.Token)
	data := gin.H{
		"User":    state.User,
		"History": history,
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("download history unavailable")
		data["Error"] = "download history is currently unavailable"
	}

	c.HTML(http.StatusOK, "download_history.html", data)
}
