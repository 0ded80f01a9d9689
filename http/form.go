package http

import "net/http"

// RegisterFormHandler serves the interactive prediction form.
func RegisterFormHandler(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleForm)
}

func handleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(formPage))
}

const formPage = `<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="utf-8">
<title>Car Price Predictor</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; }
label { display: block; margin-top: 0.8em; }
select, input { width: 100%; padding: 0.4em; }
button { margin-top: 1.2em; padding: 0.6em 1.4em; }
#result { margin-top: 1em; font-size: 1.3em; font-weight: bold; }
#error { color: #b00; }
</style>
</head>
<body>
<h1>&#128763; Car Price Predictor</h1>
<form id="predict-form">
  <label>Marka <select id="mark"></select></label>
  <label>Model <select id="model"></select></label>
  <label>Generacja <select id="gen"></select></label>
  <label>Rok produkcji <input type="number" id="year" min="1990" max="2025" value="2015"></label>
  <label>Przebieg [km] <input type="number" id="mileage" min="0" value="50000"></label>
  <label>Pojemno&#347;&#263; silnika <input type="number" id="vol" min="0" value="2000"></label>
  <label>Paliwo <select id="fuel"></select></label>
  <label>Miasto <select id="city"></select></label>
  <button type="submit">Oblicz cen&#281;</button>
</form>
<div id="result"></div>
<div id="error"></div>
<script>
const el = id => document.getElementById(id);
const fill = (select, values) => {
  select.innerHTML = "";
  for (const v of values) {
    const opt = document.createElement("option");
    opt.value = opt.textContent = v;
    select.appendChild(opt);
  }
};

async function loadOptions() {
  const res = await fetch("/api/options");
  if (!res.ok) { el("error").textContent = "artifacts not loaded"; return; }
  const opts = await res.json();
  fill(el("mark"), opts.marks);
  fill(el("city"), opts.cities);
  fill(el("fuel"), opts.fuels);
  await loadMark();
}

let gensByModel = {};
async function loadMark() {
  const res = await fetch("/api/options/" + encodeURIComponent(el("mark").value));
  if (!res.ok) return;
  const opts = await res.json();
  fill(el("model"), opts.models);
  gensByModel = opts.generations_by_model || {};
  loadGens();
}

function loadGens() {
  fill(el("gen"), gensByModel[el("model").value] || ["unknown"]);
}

el("mark").addEventListener("change", loadMark);
el("model").addEventListener("change", loadGens);

el("predict-form").addEventListener("submit", async e => {
  e.preventDefault();
  el("result").textContent = "";
  el("error").textContent = "";
  const res = await fetch("/api/predict", {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({
      mark: el("mark").value,
      model: el("model").value,
      generation_name: el("gen").value,
      year: parseInt(el("year").value, 10),
      mileage: parseFloat(el("mileage").value),
      vol_engine: parseFloat(el("vol").value),
      fuel: el("fuel").value,
      city: el("city").value
    })
  });
  if (!res.ok) { el("error").textContent = await res.text(); return; }
  const data = await res.json();
  el("result").textContent = "Przewidywana cena: " +
    Math.round(data.predicted_price).toLocaleString("pl-PL") + " " + data.currency;
});

loadOptions();
</script>
</body>
</html>
`
