package tsprint

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// portal is a fake FollowMe portal serving the same markup the real one
// renders, with form-level request recording so tests can assert on the
// wizard sequence.
type portal struct {
	mu sync.Mutex

	user string
	pass string

	hits int

	// recorded by the upload wizard
	selRadioGroup string
	selHidden     string
	selSubmit     string
	selCSRF       string
	copies        string
	uploadedName  string
	uploadedType  string
	uploadedBody  []byte
	uploadedXHR   string
	finalized     bool
	finalSubmit   string

	// release queue state
	jobs     []string
	held     []string // jobs rendered without a print action
	released []string // sp values of executed release links

	// behavior switches
	queueUploads bool // finalized uploads show up in the release queue
	releaseDown  bool // every release-station printer reports offline
}

func newPortal() *portal {
	return &portal{user: "alice", pass: "s3cret"}
}

func (p *portal) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits
}

func (p *portal) authed(r *http.Request) bool {
	cookie, err := r.Cookie("JSESSIONID")
	return err == nil && cookie.Value == "ok"
}

func (p *portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hits++

	if r.URL.Path == "/user" {
		if p.authed(r) {
			io.WriteString(w, homePage)
		} else {
			p.writeLoginPage(w, "")
		}
		return
	}

	if strings.HasPrefix(r.URL.Path, "/upload/") {
		p.handleFileUpload(w, r)
		return
	}

	if r.URL.Path != "/app" {
		http.NotFound(w, r)
		return
	}

	switch r.URL.Query().Get("service") {
	case "direct/1/Home/$Form":
		p.handleLogin(w, r)
	case "page/UserSummary":
		if p.authed(r) {
			io.WriteString(w, homePage)
		} else {
			p.writeLoginPage(w, "")
		}
	case "page/UserWebPrint":
		io.WriteString(w, webPrintLanding)
	case "direct/1/UserWebPrint/$ActionLink":
		io.WriteString(w, printerSelectionPage)
	case "direct/1/UserWebPrintSelection/$Form":
		r.ParseForm()
		p.selRadioGroup = r.PostFormValue("$RadioGroup")
		p.selHidden = r.PostFormValue("$Hidden")
		p.selSubmit = r.PostFormValue("$Submit$1")
		p.selCSRF = r.Header.Get("X-Csrf-Token")
		io.WriteString(w, printOptionsPage)
	case "direct/1/UserWebPrintOptions/$Form":
		r.ParseForm()
		p.copies = r.PostFormValue("copies")
		io.WriteString(w, uploadPage)
	case "direct/1/UserWebPrintUpload/$Form":
		r.ParseForm()
		p.finalized = true
		p.finalSubmit = r.PostFormValue("$Submit")
		if p.queueUploads && p.uploadedName != "" {
			p.jobs = append(p.jobs, p.uploadedName)
		}
		io.WriteString(w, "<html><body>ok</body></html>")
	case "page/UserReleaseJobs":
		p.writeJobsPage(w)
	case "direct/1/UserReleaseJobs/$DirectLink":
		p.writeReleasePage(w)
	case "direct/1/ReleaseStation/$ReleaseStationJobs.$DirectLink":
		p.released = append(p.released, r.URL.Query().Get("sp"))
		io.WriteString(w, "<html><body>ok</body></html>")
	default:
		http.NotFound(w, r)
	}
}

func (p *portal) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	if r.PostFormValue("inputUsername") != p.user || r.PostFormValue("inputPassword") != p.pass {
		p.writeLoginPage(w, "Nom d'utilisateur ou mot de passe invalide.")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "ok", Path: "/"})
	io.WriteString(w, homePage)
}

func (p *portal) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	p.uploadedXHR = r.Header.Get("X-Requested-With")
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	body, _ := io.ReadAll(f)
	p.uploadedName = fh.Filename
	p.uploadedType = fh.Header.Get("Content-Type")
	p.uploadedBody = body
	io.WriteString(w, `{"state":"COMPLETE"}`)
}

func (p *portal) writeLoginPage(w io.Writer, errMsg string) {
	errDiv := ""
	if errMsg != "" {
		errDiv = `<div class="error">` + errMsg + `</div>`
	}
	fmt.Fprintf(w, `<html><body>
<h1>Connexion</h1>
%s
<form name="Home" method="post" action="/app?service=direct/1/Home/$Form">
<input type="hidden" name="formids" value="inputUsername,inputPassword"/>
<input type="text" name="inputUsername" value=""/>
<input type="password" name="inputPassword" value=""/>
<input type="submit" name="$Submit$0" value="Connexion"/>
</form>
</body></html>`, errDiv)
}

func (p *portal) writeJobsPage(w io.Writer) {
	var b strings.Builder
	b.WriteString(`<html><body><a href="#">Déconnexion</a>
<table id="jobs-table">
<tr><th class="documentColumnHeader">Document</th><th class="actionColumnHeader"></th></tr>`)
	for i, name := range p.jobs {
		fmt.Fprintf(&b, `
<tr>
<td class="documentColumnValue"><span class="smallText">%s</span></td>
<td class="actionColumnValue"><a href="/app?service=direct/1/UserReleaseJobs/$DirectLink&amp;sp=%d">Imprimer</a> <a href="#">Annuler</a></td>
</tr>`, name, i)
	}
	for _, name := range p.held {
		fmt.Fprintf(&b, `
<tr>
<td class="documentColumnValue"><span class="smallText">%s</span></td>
<td class="actionColumnValue"></td>
</tr>`, name)
	}
	b.WriteString(`
</table></body></html>`)
	io.WriteString(w, b.String())
}

func (p *portal) writeReleasePage(w io.Writer) {
	status := []string{"OK", "Hors ligne"}
	if p.releaseDown {
		status = []string{"Hors ligne", "Hors ligne"}
	}
	fmt.Fprintf(w, `<html><body><a href="#">Déconnexion</a>
<table>
<tr><td><a href="/app?service=direct/1/ReleaseStation/$ReleaseStationJobs.$DirectLink&amp;sp=0">imp-4D-couloir</a></td><td>%s</td></tr>
<tr><td><a href="/app?service=direct/1/ReleaseStation/$ReleaseStationJobs.$DirectLink&amp;sp=1">imp-accueil</a></td><td>%s</td></tr>
</table></body></html>`, status[0], status[1])
}

const homePage = `<html><body>
<a href="/app?service=direct/1/Home/$LogoutLink">Déconnexion</a>
<table class="stats">
<tr><td>Solde</td><td>2,50 &euro;</td></tr>
<tr><td>Total des travaux d'impression</td><td>17</td></tr>
<tr><td>Total des pages</td><td>123</td></tr>
</table>
</body></html>`

const webPrintLanding = `<html><body>
<a href="/app?service=direct/1/Home/$LogoutLink">Déconnexion</a>
<a class="btn" href="/app?service=direct/1/UserWebPrint/$ActionLink">Envoyer un travail &raquo;</a>
</body></html>`

const printerSelectionPage = `<html><body>
<script>var csrfToken = 'csrf-123';</script>
<form method="post" action="/app?service=direct/1/UserWebPrintSelection/$Form">
<input type="hidden" name="$Hidden" value="stale"/>
<input type="hidden" name="$Hidden$0" value="stale"/>
<table>
<tr><td><input type="radio" name="$RadioGroup" value="0"/></td><td>imprimerie-nb (Noir et blanc)</td></tr>
<tr><td><input type="radio" name="$RadioGroup" value="1"/></td><td>imprimerie-couleur (Couleur)</td></tr>
</table>
<input type="submit" name="$Submit$1" value="2. Options d'impression et sélection de compte >>"/>
</form>
</body></html>`

const printOptionsPage = `<html><body>
<form method="post" action="/app?service=direct/1/UserWebPrintOptions/$Form">
<input type="text" name="copies" value="1"/>
<input type="submit" name="$Submit" value="3. Document à envoyer >>"/>
</form>
</body></html>`

const uploadPage = `<html><body>
<script>
$(function() { new Uploader({ url: "/upload/42", maxSize: 104857600 }); });
</script>
<form id="upload-complete" method="post" action="/app?service=direct/1/UserWebPrintUpload/$Form">
<input type="hidden" name="uploadId" value="42"/>
<input type="submit" name="$Submit" value="Terminer"/>
</form>
</body></html>`

// newTestClient wires a client to a fake portal with test-friendly
// polling settings.
func newTestClient(t *testing.T, p *portal) *Client {
	t.Helper()

	server := httptest.NewServer(p)
	t.Cleanup(server.Close)

	c := New(p.user, p.pass, WithBaseURL(server.URL))
	c.pollAttempts = 3
	c.pollInterval = 5 * time.Millisecond
	return c
}
